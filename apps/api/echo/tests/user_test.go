package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/gyermekkert/admin/apps/api/echo"
	"github.com/gyermekkert/admin/core/user"
	emailsvc "github.com/gyermekkert/admin/services/email"
	testutil "github.com/gyermekkert/admin/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	dummyDB.Reset()

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)

	usr1 := testutil.CreateUser(t, usrRepo, "Kiss Anna", "kissanna", "anna@test.hu", "", "", nil, true, t1)
	admin := testutil.CreateUser(t, usrRepo, "Nagy Ádám", "nagyadam", "adam@test.hu", "", "", []string{user.RoleAdmin}, true, t2)
	office := testutil.CreateUser(t, usrRepo, "Tóth Eszter", "totheszter", "eszter@test.hu", "", "", []string{user.RoleAdminisztracio}, true)
	hazvezeto := testutil.CreateUser(t, usrRepo, "Szabó Júlia", "szabojulia", "julia@test.hu", "", "Kék Ház", []string{user.RoleHazvezeto}, true)
	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "", "Kék Ház", []string{user.RolePedagogus}, true)
	inactive := testutil.CreateUser(t, usrRepo, "Régi Munkatárs", "regimunka", "regi@test.hu", "", "", []string{user.RolePedagogus}, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, pedagogus), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, usr1, admin, office, hazvezeto, pedagogus, inactive),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: empty},
		{name: "search=eszter", path: path("eszter", "", nil), token: adminToken, wantData: marchallList(t, office)},
		{name: "role (unknown)", path: path("", "", nil, "lol"), token: adminToken, wantData: empty},
		{
			name: "role=pedagogus:", path: path("", "", nil, user.RolePedagogus),
			token: adminToken, wantData: marchallList(t, pedagogus, inactive),
		},
		{
			name: "role=admin:,adminisztracio:", path: path("", "", nil, user.RoleAdmin, user.RoleAdminisztracio),
			token: adminToken, wantData: marchallList(t, admin, office),
		},
		{
			name: "is_active=true", path: path("", "", bPtr(true)),
			token: adminToken, wantData: marchallList(t, usr1, admin, office, hazvezeto, pedagogus),
		},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, inactive)},
		{
			name: "house filter", path: "/v1/users?house=" + url.QueryEscape("Kék Ház"),
			token: adminToken, wantData: marchallList(t, hazvezeto, pedagogus),
		},
		{
			name: "combo", path: path("varga", "", bPtr(true), user.RolePedagogus),
			token: adminToken, wantData: marchallList(t, pedagogus),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// ordering needs exact order; compare IDs
	t.Run("order by -name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("", "-name", nil), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}

		var got []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		want := []user.User{pedagogus, hazvezeto, office, inactive, admin, usr1}
		if len(got) != len(want) {
			t.Fatalf("len = %d; want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Errorf("got[%d] = %s; want %s", i, got[i].Name, want[i].Name)
			}
		}
	})
}

func Test_userApi_userRefreshToken(t *testing.T) {
	dummyDB.Reset()

	inactive := testutil.CreateUser(t, usrRepo, "Régi Munkatárs", "regimunka", "regi@test.hu", "", "", []string{user.RolePedagogus}, false)
	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "", "", []string{user.RolePedagogus}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   pedagogus.ID,
			Audience:  "Gyermekkert",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsPedagogus:  pedagogus.IsPedagogus(),
		Roles:        pedagogus.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(conf, unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, inactive), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, pedagogus), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal(): %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	dummyDB.Reset()

	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "Titok123!", "", []string{user.RolePedagogus}, true)
	inactive := testutil.CreateUser(t, usrRepo, "Régi Munkatárs", "regimunka", "regi@test.hu", "Titok123!", "", nil, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "senki", Password: "Titok123!"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, echoapi.LoginRequest{Username: pedagogus.Username, Password: "rossz"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "inactive account",
			body:     marchallObj(t, echoapi.LoginRequest{Username: inactive.Username, Password: "Titok123!"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "login by username",
			body:     marchallObj(t, echoapi.LoginRequest{Username: pedagogus.Username, Password: "Titok123!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email",
			body:     marchallObj(t, echoapi.LoginRequest{Username: pedagogus.Email, Password: "Titok123!"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal(): %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	dummyDB.Reset()

	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "", "", []string{user.RolePedagogus}, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.hu"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: pedagogus.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: pedagogus.Name, Address: pedagogus.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !strings.Contains(msg.TextContent, "/password-reset/") {
						t.Error("failed! text content does not contain the reset link")
					}
				} else if len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	dummyDB.Reset()

	pedagogus := testutil.CreateUser(t, usrRepo, "Varga Márk", "vargamark", "mark@test.hu", "regi", "", []string{user.RolePedagogus}, true)
	validUID := user.EncodeUID(pedagogus)
	validToken, err := user.MakeToken(conf, pedagogus)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := conf.Server.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(conf, pedagogus)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	user.NowFunc = time.Now // reset

	newPwd := "UjJelszo123!"
	tests := []httpTest{
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "???", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: "mas"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUserByID(context.Background(), pedagogus.ID)
				if err != nil {
					t.Fatalf("GetUserByID(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, pedagogus.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
