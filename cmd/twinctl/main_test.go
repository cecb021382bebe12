package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const example = "../../internal/twinctl/testdata/peak.yaml"

func TestRun(t *testing.T) {
	convey.Convey("Given the twinctl command", t, func() {
		var stdout, stderr bytes.Buffer

		convey.Convey("When run is given a scenario file", func() {
			code := run([]string{"run", example}, &stdout, &stderr)

			convey.Convey("Then it writes a JSON report", func() {
				convey.So(code, convey.ShouldEqual, 0)
				var out map[string]any
				convey.So(json.Unmarshal(stdout.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out["athlete_id"], convey.ShouldEqual, "runner-7")
				convey.So(out, convey.ShouldContainKey, "optimize")
			})
		})

		convey.Convey("When a single block is written to a file", func() {
			path := filepath.Join(t.TempDir(), "report.json")
			code := run([]string{"advise", "-o", path, example}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 0)

			data, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			var out map[string]any
			convey.So(json.Unmarshal(data, &out), convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainKey, "advice")
			convey.So(out, convey.ShouldNotContainKey, "simulation")
		})

		convey.Convey("When the command is unknown", func() {
			convey.So(run([]string{"forecast", example}, &stdout, &stderr), convey.ShouldEqual, 2)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "Unknown command")
		})

		convey.Convey("When no file is given", func() {
			convey.So(run([]string{"run"}, &stdout, &stderr), convey.ShouldEqual, 2)
		})

		convey.Convey("When the file does not exist", func() {
			convey.So(run([]string{"run", "missing.yaml"}, &stdout, &stderr), convey.ShouldEqual, 1)
		})

		convey.Convey("When help is requested", func() {
			convey.So(run([]string{"help"}, &stdout, &stderr), convey.ShouldEqual, 0)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "USAGE")
		})
	})
}
