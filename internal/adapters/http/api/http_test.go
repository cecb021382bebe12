package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/twin/internal/adapters/http/api"
	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var epoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newRouter(svc *service.Service) *mux.Router {
	router := mux.NewRouter()
	api.NewServer(svc).Register(context.Background(), router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Twins(t *testing.T) {
	Convey("Given an API server backed by a service", t, func() {
		svc := service.New(service.WithClock(func() time.Time { return epoch }), service.WithDefaultScenarioDays(14))
		router := newRouter(svc)

		Convey("When a twin is created", func() {
			w := do(router, http.MethodPost, "/twins",
				`{"athlete_id":"ath-1","training_age":4,"age":27,"history":[{"id":"h1","date":"2024-02-27","tss":80}]}`)

			Convey("Then it is returned with its calibrated state", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				body := decodeBody(w)
				So(body["athlete_id"], ShouldEqual, "ath-1")
				So(body["sessions"], ShouldEqual, 1.0)
				state := body["state"].(map[string]any)
				So(state["timestamp"], ShouldEqual, "2024-03-01T00:00:00Z")
				So(state["fitness"], ShouldBeGreaterThan, 0.0)
			})

			Convey("And it can be read back", func() {
				w := do(router, http.MethodGet, "/twins/ath-1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["profile"].(map[string]any)["age"], ShouldEqual, 27.0)
			})

			Convey("And creating it again conflicts", func() {
				w := do(router, http.MethodPost, "/twins", `{"athlete_id":"ath-1"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeBody(w)["code"], ShouldEqual, "conflict")
			})

			Convey("And it can be recalibrated", func() {
				w := do(router, http.MethodPost, "/twins/ath-1/recalibrate", `{"training_age":10}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				profile := decodeBody(w)["profile"].(map[string]any)
				So(profile["training_age"], ShouldEqual, 10.0)
				So(profile["age"], ShouldEqual, 27.0)
			})

			Convey("And its history can be limited", func() {
				w := do(router, http.MethodGet, "/twins/ath-1/history?limit=5", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["history"], ShouldHaveLength, 1)

				w = do(router, http.MethodGet, "/twins/ath-1/history?limit=-1", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And it can be deleted", func() {
				w := do(router, http.MethodDelete, "/twins/ath-1", "")
				So(w.Code, ShouldEqual, http.StatusNoContent)

				w = do(router, http.MethodGet, "/twins/ath-1", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeBody(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the body is malformed", func() {
			w := do(router, http.MethodPost, "/twins", `{"athlete_id":`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body exceeds the size limit", func() {
			w := do(router, http.MethodPost, "/twins", `{"athlete_id":"`+strings.Repeat("a", 1<<20)+`"}`)

			Convey("Then the request is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeBody(w)["code"], ShouldEqual, "too_large")
			})
		})

		Convey("When a history date is invalid", func() {
			w := do(router, http.MethodPost, "/twins", `{"history":[{"date":"yesterday"}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown twin is read", func() {
			w := do(router, http.MethodGet, "/twins/nobody", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Sessions(t *testing.T) {
	Convey("Given a started service with one twin", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(func() time.Time { return epoch }), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		router := newRouter(svc)
		So(do(router, http.MethodPost, "/twins", `{"athlete_id":"ath-1"}`).Code, ShouldEqual, http.StatusCreated)

		Convey("When a session is posted", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/sessions", `{"id":"s1","date":"2024-03-02T07:30:00Z","tss":90}`)

			Convey("Then it is accepted for processing", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decodeBody(w)["status"], ShouldEqual, "accepted")
			})

			Convey("And a repeat is acknowledged as a duplicate", func() {
				w := do(router, http.MethodPost, "/twins/ath-1/sessions", `{"id":"s1","date":"2024-03-02T07:30:00Z","tss":90}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["duplicate"], ShouldBeTrue)
			})
		})

		Convey("When a session is applied inline", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/sessions?sync=true", `{"date":"2024-03-03","exercises":[{"name":"squat","sets":5}]}`)

			Convey("Then the new history entry is returned with the defaulted inputs", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["status"], ShouldEqual, "applied")
				So(body["session_id"], ShouldNotBeBlank)
				So(body["defaulted"], ShouldNotBeEmpty)
			})
		})

		Convey("When a session predates the twin", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/sessions", `{"date":"2024-02-01","tss":40}`)

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeBody(w)["code"], ShouldEqual, "non_monotonic")
			})
		})

		Convey("When a session has no date", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/sessions", `{"tss":40}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the twin does not exist", func() {
			w := do(router, http.MethodPost, "/twins/ghost/sessions", `{"date":"2024-03-02","tss":40}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the service is stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			w := do(router, http.MethodPost, "/twins/ath-1/sessions", `{"date":"2024-03-02","tss":40}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestServer_Projections(t *testing.T) {
	Convey("Given a twin with some training behind it", t, func() {
		svc := service.New(
			service.WithClock(func() time.Time { return epoch }),
			service.WithDefaultScenarioDays(14),
			service.WithMaxHorizonDays(60),
		)
		router := newRouter(svc)
		So(do(router, http.MethodPost, "/twins",
			`{"athlete_id":"ath-1","history":[{"date":"2024-02-25","tss":70},{"date":"2024-02-27","tss":70},{"date":"2024-02-29","tss":70}]}`).Code,
			ShouldEqual, http.StatusCreated)

		Convey("When simulating a plan", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/simulate",
				`{"days":7,"reference":"2024-03-01","plan":[{"date":"2024-03-03","tss":100}]}`)

			Convey("Then one entry per day is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				sim := decodeBody(w)["simulation"].([]any)
				So(sim, ShouldHaveLength, 7)
				So(sim[1].(map[string]any)["has_workout"], ShouldBeTrue)
				So(sim[1].(map[string]any)["tss"], ShouldEqual, 100.0)
			})
		})

		Convey("When simulating beyond the horizon cap", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/simulate", `{"days":61}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When optimizing toward a competition", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/optimize", `{"target_date":"2024-03-22","reference":"2024-03-01"}`)

			Convey("Then a strategy is recommended", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["status"], ShouldEqual, "success")
				So(body["days_to_target"], ShouldEqual, 21.0)
				So(body["recommended"], ShouldNotBeBlank)
			})
		})

		Convey("When the competition is too close", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/optimize", `{"target_date":"2024-03-04"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["status"], ShouldEqual, "too_late")
		})

		Convey("When the target is missing", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/optimize", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When comparing scenarios", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/compare",
				`{"scenarios":[{"name":"easy","plan":[{"date":"2024-03-02","tss":20}]},{"name":"hard","plan":[{"date":"2024-03-02","tss":150}]}]}`)

			Convey("Then they are ranked", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["status"], ShouldEqual, "ranked")
				So(body["ranked"], ShouldHaveLength, 2)
				So(body["analysis"], ShouldNotBeBlank)
			})
		})

		Convey("When only one scenario is given", func() {
			w := do(router, http.MethodPost, "/twins/ath-1/compare", `{"scenarios":[{"name":"solo"}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["status"], ShouldEqual, "insufficient_scenarios")
		})

		Convey("When asking for recommendations", func() {
			w := do(router, http.MethodGet, "/twins/ath-1/recommendations", "")

			Convey("Then the current state is described", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["current_state"], ShouldNotBeNil)
				So(body["status"], ShouldNotBeBlank)
			})
		})
	})
}

func TestServer_Operational(t *testing.T) {
	Convey("Given an API server", t, func() {
		router := newRouter(service.New())

		Convey("Then /healthz serves Prometheus metrics", func() {
			w := do(router, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats reports the service", func() {
			w := do(router, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["started"], ShouldBeFalse)
			So(body["twins"], ShouldEqual, 0.0)
		})

		Convey("Then unknown routes are not found", func() {
			w := do(router, http.MethodGet, "/nowhere", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
