package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roster-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// registerAndVerify walks an applicant through the public steps and returns
// the registration id.
func registerAndVerify(t *testing.T, router http.Handler, mail *outbox, body map[string]string) string {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id, _ := parseResponse(w)["registration_id"].(string)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/verify-email/"+mail.lastToken(t)+"/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return id
}

func TestLookupCompanySuccess(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)
	seedCompany(db, "Jill Amsterdam", "JILL01")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/lookup-company/", map[string]string{"company_code": "jill01"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["success"] != true {
		t.Errorf("expected success true, got %v", resp["success"])
	}
	company := resp["company"].(map[string]interface{})
	if company["name"] != "Jill Amsterdam" || company["company_code"] != "JILL01" {
		t.Errorf("unexpected company payload: %v", company)
	}
	if company["cuisine_type"] != "Dutch" || company["address"] != "Damrak 1, Amsterdam" {
		t.Errorf("unexpected company payload: %v", company)
	}
	if _, leaked := company["id"]; leaked {
		t.Error("company id must not be exposed to applicants")
	}
	if resp["message"] != "Company found: Jill Amsterdam" {
		t.Errorf("unexpected message %v", resp["message"])
	}
}

func TestLookupCompanyNotFound(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)
	inactive := seedCompany(db, "Closed Kitchen", "CLOS01")
	db.Model(inactive).Update("is_active", false)

	for _, code := range []string{"NOPE01", "CLOS01"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("POST", "/api/auth/lookup-company/", map[string]string{"company_code": code}))
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d: %s", code, w.Code, w.Body.String())
		}
		resp := parseResponse(w)
		if resp["success"] != false || resp["message"] == nil {
			t.Errorf("%s: unexpected body %v", code, resp)
		}
	}
}

func TestLookupCompanyValidation(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/lookup-company/", map[string]string{"company_code": "AB"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(fieldErrors(parseResponse(w), "company_code")) == 0 {
		t.Errorf("expected company_code error, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/auth/lookup-company/", nil)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty body, got %d", w.Code)
	}
}

func TestRegisterSuccess(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", registrationBody("JILL01")))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["next_step"] != "email_verification" {
		t.Errorf("expected next_step email_verification, got %v", resp["next_step"])
	}
	if _, err := uuid.Parse(resp["registration_id"].(string)); err != nil {
		t.Errorf("expected registration id, got %v", resp["registration_id"])
	}

	var stored models.RegistrationRequest
	if err := db.Where("email = ?", "piet@example.nl").First(&stored).Error; err != nil {
		t.Fatal("registration request not stored")
	}
	if stored.CompanyID != company.ID || stored.Status != models.StatusPending || stored.EmailVerified {
		t.Errorf("unexpected stored request: %+v", stored)
	}
	if len(mail.verification) != 1 {
		t.Errorf("expected one verification mail, got %d", len(mail.verification))
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)
	seedCompany(db, "Jill Amsterdam", "JILL01")

	body := registrationBody("WRONG1")
	body["phone"] = "0201234567"
	body["password"] = "password"
	body["password_confirm"] = "password"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["success"] != false {
		t.Errorf("expected success false, got %v", resp["success"])
	}
	for _, field := range []string{"phone", "password", "company_code"} {
		if len(fieldErrors(resp, field)) == 0 {
			t.Errorf("expected errors for %s, got %s", field, w.Body.String())
		}
	}

	var count int64
	db.Model(&models.RegistrationRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no stored request, got %d", count)
	}
}

func TestRegisterDuplicatePending(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)
	seedCompany(db, "Jill Amsterdam", "JILL01")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", registrationBody("JILL01")))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", registrationBody("JILL01")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(fieldErrors(parseResponse(w), "non_field_errors")) == 0 {
		t.Errorf("expected non_field_errors, got %s", w.Body.String())
	}
}

func TestVerifyEmail(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	seedCompany(db, "Jill Amsterdam", "JILL01")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", registrationBody("JILL01")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/verify-email/"+mail.lastToken(t)+"/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["applicant_name"] != "Piet Janssen" || resp["company_name"] != "Jill Amsterdam" {
		t.Errorf("unexpected body %v", resp)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/verify-email/not-a-token/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestPendingRegistrations(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")
	_, managerToken := seedUser(db, company, "marco", models.RoleManager, true)
	_, employeeToken := seedUser(db, company, "eva", models.RoleEmployee, true)

	registerAndVerify(t, router, mail, registrationBody("JILL01"))

	unverified := registrationBody("JILL01")
	unverified["email"] = "kees@example.nl"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register/", unverified))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/pending-registrations/", nil, managerToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	list := parseResponseArray(w)
	if len(list) != 1 {
		t.Fatalf("expected 1 pending registration, got %d", len(list))
	}
	item := list[0].(map[string]interface{})
	if item["email"] != "piet@example.nl" || item["function_display"] != "Kitchen" {
		t.Errorf("unexpected item %v", item)
	}
	if _, leaked := item["verification_token"]; leaked {
		t.Error("verification token must not be listed")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/pending-registrations/", nil, employeeToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Errorf("expected empty list for employees, got %s", w.Body.String())
	}
}

func TestPendingRegistrationsRequiresAuth(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/auth/pending-registrations/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestApproveRegistrationFlow(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")
	manager, managerToken := seedUser(db, company, "marco", models.RoleManager, true)

	id := registerAndVerify(t, router, mail, registrationBody("JILL01"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/auth/approve-registration/"+id+"/", map[string]string{"status": "approved"}, managerToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["employee_number"] != "JILL01-0002" {
		t.Errorf("expected employee number JILL01-0002, got %v", resp["employee_number"])
	}
	if resp["username"] != "piet.janssen" {
		t.Errorf("expected username piet.janssen, got %v", resp["username"])
	}

	var account models.User
	if err := db.Where("id = ?", resp["new_user_id"]).First(&account).Error; err != nil {
		t.Fatal("approved account not found")
	}
	if !account.IsApproved || account.ApprovedByID == nil || *account.ApprovedByID != manager.ID {
		t.Errorf("account not approved by manager: %+v", account)
	}
	if len(mail.provisioned) != 1 {
		t.Errorf("expected welcome mail, got %d", len(mail.provisioned))
	}

	// The new employee signs in with the password chosen at registration.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login/", map[string]string{"username": "piet.janssen", "password": testPassword}))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deciding again finds nothing to decide.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/auth/approve-registration/"+id+"/", map[string]string{"status": "approved"}, managerToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestRejectRegistration(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")
	_, managerToken := seedUser(db, company, "marco", models.RoleManager, true)

	id := registerAndVerify(t, router, mail, registrationBody("JILL01"))
	url := "/api/auth/approve-registration/" + id + "/"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", url, map[string]string{"status": "rejected"}, managerToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(fieldErrors(parseResponse(w), "rejection_reason")) == 0 {
		t.Errorf("expected rejection_reason error, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", url, map[string]string{"status": "rejected", "rejection_reason": "Team is full."}, managerToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := parseResponse(w)["new_user_id"]; ok {
		t.Error("rejection must not create an account")
	}

	var stored models.RegistrationRequest
	db.Where("id = ?", id).First(&stored)
	if stored.Status != models.StatusRejected || stored.RejectionReason != "Team is full." {
		t.Errorf("unexpected stored request: %+v", stored)
	}
	if len(mail.rejected) != 1 {
		t.Errorf("expected rejection mail, got %d", len(mail.rejected))
	}
}

func TestApproveRegistrationAccess(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	jill := seedCompany(db, "Jill Amsterdam", "JILL01")
	pasta := seedCompany(db, "Pasta Palace", "PAST01")
	_, employeeToken := seedUser(db, jill, "eva", models.RoleEmployee, true)
	_, unapprovedToken := seedUser(db, jill, "newbie", models.RoleManager, false)
	_, outsiderToken := seedUser(db, pasta, "paolo", models.RoleOwner, true)

	id := registerAndVerify(t, router, mail, registrationBody("JILL01"))
	url := "/api/auth/approve-registration/" + id + "/"
	body := map[string]string{"status": "approved"}

	cases := []struct {
		name  string
		url   string
		token string
		want  int
	}{
		{"employee", url, employeeToken, http.StatusForbidden},
		{"unapproved manager", url, unapprovedToken, http.StatusForbidden},
		{"other company", url, outsiderToken, http.StatusNotFound},
		{"malformed id", "/api/auth/approve-registration/not-a-uuid/", outsiderToken, http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("POST", tc.url, body, tc.token))
		if w.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}

	var stored models.RegistrationRequest
	db.Where("id = ?", id).First(&stored)
	if stored.Status != models.StatusPending {
		t.Errorf("expected request to stay pending, got %s", stored.Status)
	}
}

func TestApproveRegistrationMalformedBody(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	jill := seedCompany(db, "Jill Amsterdam", "JILL01")
	pasta := seedCompany(db, "Pasta Palace", "PAST01")
	_, managerToken := seedUser(db, jill, "marco", models.RoleManager, true)
	_, employeeToken := seedUser(db, jill, "eva", models.RoleEmployee, true)
	_, outsiderToken := seedUser(db, pasta, "paolo", models.RoleOwner, true)

	id := registerAndVerify(t, router, mail, registrationBody("JILL01"))
	url := "/api/auth/approve-registration/" + id + "/"

	cases := []struct {
		name  string
		url   string
		token string
		want  int
	}{
		{"employee", url, employeeToken, http.StatusForbidden},
		{"other company", url, outsiderToken, http.StatusNotFound},
		{"unknown request", "/api/auth/approve-registration/" + uuid.NewString() + "/", managerToken, http.StatusNotFound},
		{"own company", url, managerToken, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", tc.url, strings.NewReader(`{"status": `))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tc.token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestListRegistrations(t *testing.T) {
	db := freshDB(t)
	router, mail := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")
	_, managerToken := seedUser(db, company, "marco", models.RoleManager, true)
	_, employeeToken := seedUser(db, company, "eva", models.RoleEmployee, true)

	registerAndVerify(t, router, mail, registrationBody("JILL01"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/registrations/", nil, managerToken))
	if w.Code != http.StatusOK || len(parseResponseArray(w)) != 1 {
		t.Fatalf("expected one registration for the manager, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/registrations/", nil, employeeToken))
	if w.Code != http.StatusOK || len(parseResponseArray(w)) != 0 {
		t.Fatalf("expected no registrations for an employee, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeactivatedAccountTokenRejected(t *testing.T) {
	db := freshDB(t)
	router, _ := setupRouter(db)
	company := seedCompany(db, "Jill Amsterdam", "JILL01")
	manager, token := seedUser(db, company, "marco", models.RoleManager, true)
	deactivate(db, manager)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/pending-registrations/", nil, token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func deactivate(db *gorm.DB, user *models.User) {
	db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false)
}
