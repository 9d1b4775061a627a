package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gyermekkert/admin/core/attendance"
	"github.com/gyermekkert/admin/core/user"
	testutil "github.com/gyermekkert/admin/tests"
)

func createClass(t *testing.T, token string, nc attendance.NewClass) attendance.Class {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/classes", token, marchallObj(t, nc))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createClass() code = %v; body %v", rec.Code, rec.Body.String())
	}
	var c attendance.Class
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("createClass(): %v", err)
	}
	return c
}

func createStudent(t *testing.T, token string, ns attendance.NewStudent) attendance.Student {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/students", token, marchallObj(t, ns))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createStudent() code = %v; body %v", rec.Code, rec.Body.String())
	}
	var s attendance.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return s
}

func Test_attendanceApi_classVisibility(t *testing.T) {
	dummyDB.Reset()

	office := testutil.CreateUser(t, usrRepo, "Tóth Eszter", "totheszter", "eszter@test.hu", "", "", []string{user.RoleAdminisztracio}, true)
	hazvezeto := testutil.CreateUser(t, usrRepo, "Szabó Júlia", "szabojulia", "julia@test.hu", "", "Kék Ház", []string{user.RoleHazvezeto}, true)
	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "", "Kék Ház", []string{user.RolePedagogus}, true)
	officeToken := getToken(t, office)

	katica := createClass(t, officeToken, attendance.NewClass{Name: "Katica", House: "Kék Ház", PedagogueID: pedagogus.ID})
	suni := createClass(t, officeToken, attendance.NewClass{Name: "Süni", House: "Zöld Ház"})

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/attendance/classes",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Office sees all", method: http.MethodGet, path: "/v1/attendance/classes",
			token: officeToken, wantCode: http.StatusOK, wantData: marchallList(t, katica, suni),
		},
		{
			name: "Hazvezeto sees own house", method: http.MethodGet, path: "/v1/attendance/classes",
			token: getToken(t, hazvezeto), wantCode: http.StatusOK, wantData: marchallList(t, katica),
		},
		{
			name: "Pedagogus sees assigned class", method: http.MethodGet, path: "/v1/attendance/classes",
			token: getToken(t, pedagogus), wantCode: http.StatusOK, wantData: marchallList(t, katica),
		},
		{
			name: "Pedagogus blocked from other class", method: http.MethodGet, path: "/v1/attendance/classes/" + suni.ID,
			token: getToken(t, pedagogus), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Pedagogus cannot create", method: http.MethodPost, path: "/v1/attendance/classes",
			token: getToken(t, pedagogus), body: marchallObj(t, attendance.NewClass{Name: "Méhecske"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown class", method: http.MethodGet, path: "/v1/attendance/classes/nope",
			token: officeToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_sheet(t *testing.T) {
	dummyDB.Reset()

	office := testutil.CreateUser(t, usrRepo, "Tóth Eszter", "totheszter", "eszter@test.hu", "", "", []string{user.RoleAdminisztracio}, true)
	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "", "Kék Ház", []string{user.RolePedagogus}, true)
	officeToken := getToken(t, office)
	pedToken := getToken(t, pedagogus)

	katica := createClass(t, officeToken, attendance.NewClass{Name: "Katica", House: "Kék Ház", PedagogueID: pedagogus.ID})
	bence := createStudent(t, officeToken, attendance.NewStudent{Name: "Kovács Bence", ClassID: katica.ID})
	lili := createStudent(t, officeToken, attendance.NewStudent{Name: "Horváth Lili", ClassID: katica.ID})

	sheetPath := "/v1/attendance/classes/" + katica.ID + "/sheet"

	t.Run("Bad date param", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, sheetPath+"?date=ma", pedToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid or missing date; use yyyy-mm-dd"}),
		}, rec)
	})

	t.Run("Defaults to present", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, sheetPath+"?date=2026-09-01", pedToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				attendance.SheetEntry{StudentID: bence.ID, StudentName: bence.Name, Present: true},
				attendance.SheetEntry{StudentID: lili.ID, StudentName: lili.Name, Present: true},
			),
		}, rec)
	})

	t.Run("Save and reload", func(t *testing.T) {
		save := attendance.SheetSave{
			Date: "2026-09-01",
			Entries: []attendance.SheetSaveEntry{
				{StudentID: bence.ID, Present: true},
				{StudentID: lili.ID, Present: false, Note: "beteg"},
			},
		}
		req, rec := newAuthRequest(http.MethodPut, sheetPath, pedToken, marchallObj(t, save))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, sheetPath+"?date=2026-09-01", pedToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				attendance.SheetEntry{StudentID: bence.ID, StudentName: bence.Name, Present: true},
				attendance.SheetEntry{StudentID: lili.ID, StudentName: lili.Name, Present: false, Note: "beteg"},
			),
		}, rec)
	})

	t.Run("Report flags unrecorded days", func(t *testing.T) {
		d0 := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		d1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

		path := "/v1/attendance/classes/" + katica.ID + "/report?from=2026-08-31&to=2026-09-01"
		req, rec := newAuthRequest(http.MethodGet, path, officeToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				attendance.ReportEntry{StudentID: bence.ID, StudentName: bence.Name, Date: d0},
				attendance.ReportEntry{StudentID: lili.ID, StudentName: lili.Name, Date: d0},
				attendance.ReportEntry{StudentID: bence.ID, StudentName: bence.Name, Date: d1, Recorded: true, Present: true},
				attendance.ReportEntry{StudentID: lili.ID, StudentName: lili.Name, Date: d1, Recorded: true, Note: "beteg"},
			),
		}, rec)
	})
}
