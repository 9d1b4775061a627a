package tests

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gyermekkert/admin/core/backup"
	"github.com/gyermekkert/admin/core/user"
	testutil "github.com/gyermekkert/admin/tests"
)

func Test_backupApi_run(t *testing.T) {
	dummyDB.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Nagy Ádám", "nagyadam", "adam@test.hu", "", "", []string{user.RoleAdmin}, true)
	office := testutil.CreateUser(t, usrRepo, "Tóth Eszter", "totheszter", "eszter@test.hu", "", "", []string{user.RoleAdminisztracio}, true)
	adminToken := getToken(t, admin)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/backups/run")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		}, rec)
	})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/backups/run", getToken(t, office))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	var runID string
	t.Run("Manual run", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/backups/run", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var run backup.Run
		if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if run.Kind != backup.KindManual {
			t.Errorf("Kind = %v; want %v", run.Kind, backup.KindManual)
		}
		if run.Status != backup.StatusDone {
			t.Errorf("Status = %v; want %v; error %v", run.Status, backup.StatusDone, run.Error)
		}
		if run.Path == "" || run.SizeBytes == 0 {
			t.Errorf("archive not uploaded; Path = %q SizeBytes = %v", run.Path, run.SizeBytes)
		}
		runID = run.ID
	})

	t.Run("Query runs", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/backups", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}

		var runs []backup.Run
		if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(runs) != 1 || runs[0].ID != runID {
			t.Errorf("runs = %+v; want the single manual run", runs)
		}
	})

	t.Run("Download archive", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/backups/"+runID+"/download", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}

		var res struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}

		// signed URL serves the zip without auth headers
		req, rec = newRequest(http.MethodGet, res.URL)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("signed download code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		if err != nil {
			t.Fatalf("zip.NewReader(): %v", err)
		}
		tables := make(map[string]string, len(zr.File))
		for _, f := range zr.File {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("opening %v: %v", f.Name, err)
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("reading %v: %v", f.Name, err)
			}
			tables[f.Name] = string(data)
		}
		want := map[string]string{"user.json": "[]", "invoice.json": "[]"}
		for name, content := range want {
			if tables[name] != content {
				t.Errorf("archive[%v] = %q; want %q", name, tables[name], content)
			}
		}
	})

	t.Run("Download unknown run", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/backups/nope/download", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})

	t.Run("Concurrent run rejected", func(t *testing.T) {
		running := backup.Run{
			Kind:      backup.KindScheduled,
			Status:    backup.StatusRunning,
			StartedAt: time.Now().UTC(),
		}
		if err := backupRepo.CreateRun(context.Background(), &running); err != nil {
			t.Fatalf("CreateRun(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/backups/run", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a backup is already running"}),
		}, rec)
	})
}

func Test_backupApi_schedule(t *testing.T) {
	dummyDB.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Nagy Ádám", "nagyadam", "adam@test.hu", "", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	t.Run("Not configured yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/backups/schedule", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})

	tests := []httpTest{
		{
			name: "Required fields", body: marchallObj(t, map[string]interface{}{"enabled": true}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"frequency": "this field is required"}),
		},
		{
			name: "Unknown frequency", body: marchallObj(t, backup.SaveSchedule{Enabled: true, Hour: 2, Frequency: "hourly"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"frequency": "frequency must be one of [daily weekly]"}),
		},
		{
			name: "Hour out of range", body: marchallObj(t, backup.SaveSchedule{Enabled: true, Hour: 24, Frequency: "daily"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"hour": "hour must be 23 or less"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/v1/backups/schedule", adminToken, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Save and fetch", func(t *testing.T) {
		body := marchallObj(t, backup.SaveSchedule{Enabled: true, Hour: 2, Minute: 30, Frequency: "daily"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/backups/schedule", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}

		var sched backup.Schedule
		if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if !sched.Enabled || sched.Hour != 2 || sched.Minute != 30 || sched.Frequency != backup.FrequencyDaily {
			t.Errorf("schedule = %+v; want enabled daily at 02:30", sched)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/backups/schedule", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, sched)}, rec)
	})
}
