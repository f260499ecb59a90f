package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/adapters/http/api"
	"github.com/okian/cabina/internal/adapters/repository"
	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps implements api.Dependencies.
type mockDeps struct {
	running      bool
	latest       model.Snapshot
	classifier   *emotion.Classifier
	analyzedRate int
	emergencyErr error
	incidents    []model.Incident
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		classifier: emotion.NewClassifier(),
		latest: model.Snapshot{
			Version:   4,
			Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Result:    emotion.Result{State: emotion.StateAnxiety, Risk: emotion.RiskMedium, Confidence: emotion.Confidence},
		},
	}
}

func (m *mockDeps) StartMonitor() bool {
	if m.running {
		return false
	}
	m.running = true
	return true
}

func (m *mockDeps) StopMonitor() bool {
	was := m.running
	m.running = false
	return was
}

func (m *mockDeps) Latest() model.Snapshot { return m.latest }
func (m *mockDeps) Running() bool          { return m.running }

func (m *mockDeps) Analyze(block audio.Block, rate int) (emotion.Result, error) {
	m.analyzedRate = rate
	return m.classifier.Analyze(block, rate)
}

func (m *mockDeps) Emergency(context.Context) (model.Incident, error) {
	if m.emergencyErr != nil {
		return model.Incident{}, m.emergencyErr
	}
	return model.Incident{ID: "inc-1", Number: "800-911-2000", Source: model.SourceManual}, nil
}

func (m *mockDeps) Incidents(_ context.Context, limit int) ([]model.Incident, error) {
	if limit > len(m.incidents) {
		return m.incidents, nil
	}
	return m.incidents[:limit], nil
}

func (m *mockDeps) Incident(_ context.Context, id string) (model.Incident, error) {
	for _, inc := range m.incidents {
		if inc.ID == id {
			return inc, nil
		}
	}
	return model.Incident{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

func (m *mockDeps) GetStats(context.Context) map[string]any {
	return map[string]any{"snapshot_version": m.latest.Version}
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var doc map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &doc)
	return rec, doc
}

func TestControlEndpoints(t *testing.T) {
	Convey("Given the API with an idle monitor", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When start is posted twice", func() {
			_, first := do(mux, http.MethodPost, "/api/start", nil)
			_, second := do(mux, http.MethodPost, "/api/start", nil)

			Convey("Then the second reports already_running", func() {
				So(first["status"], ShouldEqual, "started")
				So(second["status"], ShouldEqual, "already_running")
			})
		})

		Convey("When stop is posted", func() {
			deps.running = true
			rec, doc := do(mux, http.MethodPost, "/api/stop", nil)

			Convey("Then the monitor is stopped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["status"], ShouldEqual, "stopped")
				So(deps.running, ShouldBeFalse)
			})
		})

		Convey("When start is requested with GET", func() {
			rec, _ := do(mux, http.MethodGet, "/api/start", nil)

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStateEndpoint(t *testing.T) {
	Convey("Given a published anxiety snapshot", t, func() {
		mux := newMux(newMockDeps())

		Convey("When the state is read", func() {
			rec, doc := do(mux, http.MethodGet, "/api/state", nil)

			Convey("Then the snapshot and its protocol are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["version"], ShouldEqual, 4.0)
				result := doc["result"].(map[string]any)
				So(result["state"], ShouldEqual, "anxiety")
				So(result["risk_tier"], ShouldEqual, "medium")
				proto := doc["protocol"].(map[string]any)
				So(proto["breathing"], ShouldEqual, "box breathing 4-4-4-4")
				So(doc["running"], ShouldEqual, false)
			})
		})
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	Convey("Given the analyze endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When a loud alternating block is posted", func() {
			body := capture.EncodePCM16LE(audio.Alternating(16000, 9000))
			rec, doc := do(mux, http.MethodPost, "/api/analyze?rate=16000", body)

			Convey("Then it is classified as anxiety", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["state"], ShouldEqual, "anxiety")
				So(doc["rule"], ShouldEqual, 2.0)
				So(doc["samples"], ShouldEqual, 16000.0)
				So(doc["protocol"].(map[string]any)["lighting"], ShouldEqual, "calming blue")
			})
		})

		Convey("When a WAV file is posted without a rate", func() {
			body := capture.EncodeWAV(make(audio.Block, 800), 8000)
			rec, doc := do(mux, http.MethodPost, "/api/analyze", body)

			Convey("Then the header rate is used", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.analyzedRate, ShouldEqual, 8000)
				So(doc["state"], ShouldEqual, "stable")
			})
		})

		Convey("When the body is empty", func() {
			rec, doc := do(mux, http.MethodPost, "/api/analyze", nil)

			Convey("Then it is rejected as invalid input", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(doc["code"], ShouldEqual, "invalid_input")
			})
		})

		Convey("When the body has an odd byte count", func() {
			rec, doc := do(mux, http.MethodPost, "/api/analyze", []byte{1, 2, 3})

			Convey("Then the format is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(doc["code"], ShouldEqual, "unsupported_format")
			})
		})

		Convey("When the rate is not a positive integer", func() {
			rec, _ := do(mux, http.MethodPost, "/api/analyze?rate=-5", []byte{0, 0})

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given an analyze handler with a tiny body cap", t, func() {
		mux := http.NewServeMux()
		api.NewServer(newMockDeps(), api.WithMaxBodyBytes(4)).Register(context.Background(), mux)

		Convey("When a larger body is posted", func() {
			rec, doc := do(mux, http.MethodPost, "/api/analyze", make([]byte, 16))

			Convey("Then it is rejected as too large", func() {
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(doc["code"], ShouldEqual, "too_large")
			})
		})
	})
}

func TestEmergencyEndpoint(t *testing.T) {
	Convey("Given the emergency endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When an emergency is posted", func() {
			rec, doc := do(mux, http.MethodPost, "/api/emergency", nil)

			Convey("Then the crisis line call is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["status"], ShouldEqual, "emergency_activated")
				So(doc["action"], ShouldEqual, "calling_crisis_line")
				So(doc["number"], ShouldEqual, "800-911-2000")
				So(doc["incident_id"], ShouldEqual, "inc-1")
			})
		})

		Convey("When escalation fails", func() {
			deps.emergencyErr = errors.New("store offline")
			rec, doc := do(mux, http.MethodPost, "/api/emergency", nil)

			Convey("Then a server error is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(doc["message"], ShouldEqual, "store offline")
			})
		})
	})
}

func TestIncidentEndpoints(t *testing.T) {
	Convey("Given two recorded incidents", t, func() {
		deps := newMockDeps()
		deps.incidents = []model.Incident{{ID: "b"}, {ID: "a"}}
		mux := newMux(deps)

		Convey("When listing with limit 1", func() {
			rec, doc := do(mux, http.MethodGet, "/api/incidents?limit=1", nil)

			Convey("Then one incident is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["count"], ShouldEqual, 1.0)
			})
		})

		Convey("When the limit is out of range", func() {
			rec, _ := do(mux, http.MethodGet, "/api/incidents?limit=1000", nil)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading a known id", func() {
			rec, doc := do(mux, http.MethodGet, "/api/incidents/a", nil)

			Convey("Then it is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["incident_id"], ShouldEqual, "a")
			})
		})

		Convey("When reading an unknown id", func() {
			rec, doc := do(mux, http.MethodGet, "/api/incidents/zzz", nil)

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(doc["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the API", t, func() {
		mux := newMux(newMockDeps())

		Convey("When stats are read", func() {
			rec, doc := do(mux, http.MethodGet, "/stats", nil)

			Convey("Then the provider map is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(doc["snapshot_version"], ShouldEqual, 4.0)
			})
		})

		Convey("When healthz is scraped", func() {
			rec, _ := do(mux, http.MethodGet, "/healthz", nil)

			Convey("Then Prometheus text is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "cabina_analyzer_")
			})
		})
	})
}
