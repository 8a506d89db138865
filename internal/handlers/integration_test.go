package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/middleware"
	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *services.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{}, &models.Participant{}, &models.Question{},
		&models.Option{}, &models.Vote{}, &models.VoteSelection{}, &models.ConfigEntry{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hub := ws.NewHub()
	authService := services.NewAuthService(db, "test_secret", time.Hour)
	participantService := services.NewParticipantService(db)
	questionService := services.NewQuestionService(db)
	voteService := services.NewVoteService(db)
	tallyService := services.NewTallyService(db)

	authHandler := NewAuthHandler(authService)
	participantHandler := NewParticipantHandler(participantService, tallyService, authService, hub)
	questionHandler := NewQuestionHandler(questionService, hub)
	voteHandler := NewVoteHandler(voteService, hub)
	resultsHandler := NewResultsHandler(tallyService)
	adminHandler := NewAdminHandler(participantService, voteService, hub)
	settingsHandler := NewSettingsHandler(db)

	r := gin.New()

	auth := r.Group("/auth")
	{
		auth.POST("/login/admin", authHandler.LoginAdmin)
		auth.POST("/login/voter", authHandler.LoginVoter)
	}

	voting := r.Group("/voting")
	{
		voting.POST("/register-attendance", participantHandler.RegisterAttendance)
		voting.POST("/vote", middleware.VoterAuth(authService), voteHandler.Submit)
		voting.GET("/my-votes", middleware.VoterAuth(authService), voteHandler.MyVotes)
		voting.GET("/questions/active", middleware.AnyRole(authService), questionHandler.ListActive)
		voting.GET("/results/:id", middleware.AdminAuth(authService), resultsHandler.Results)
		voting.GET("/aforo", middleware.AdminAuth(authService), resultsHandler.Aforo)
		voting.POST("/questions", middleware.AdminAuth(authService), questionHandler.Create)
		voting.PUT("/questions/:id/toggle", middleware.AdminAuth(authService), questionHandler.Toggle)

		admin := voting.Group("/admin")
		admin.Use(middleware.AdminAuth(authService))
		{
			admin.DELETE("/participants/:code", adminHandler.RemoveAttendance)
			admin.DELETE("/reset", adminHandler.Reset)
		}
	}

	participants := r.Group("/participants")
	participants.Use(middleware.AdminAuth(authService))
	{
		participants.GET("", participantHandler.List)
		participants.POST("/bulk", participantHandler.BulkImport)
	}

	settings := r.Group("/settings")
	settings.Use(middleware.AdminAuth(authService))
	{
		settings.GET("", settingsHandler.GetSettings)
		settings.PUT("", settingsHandler.UpdateSettings)
	}

	return &testApp{router: r, db: db, auth: authService}
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) adminToken(t *testing.T) string {
	t.Helper()
	token, err := app.auth.GenerateToken("admin1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	return token
}

func (app *testApp) voterToken(t *testing.T, code string) string {
	t.Helper()
	token, err := app.auth.GenerateToken(code, models.RoleVoter)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode failed: %v (body: %s)", err, w.Body.String())
	}
	return out
}

func TestFullAssemblyFlow(t *testing.T) {
	app := newTestApp(t)
	admin := app.adminToken(t)

	// Import the roster.
	w := app.request(t, http.MethodPost, "/participants/bulk", admin, BulkImportRequest{
		Participants: map[string]services.BulkEntry{
			"A101": {Name: "Ana", Coefficient: coefPtr(40)},
			"B202": {Name: "Luis", Coefficient: coefPtr(35)},
			"C303": {Name: "Marta", Coefficient: coefPtr(25)},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk import: status %d, body %s", w.Code, w.Body.String())
	}

	// Voter login fails until attendance is registered.
	w = app.request(t, http.MethodPost, "/auth/login/voter", "", VoterLoginRequest{Code: "A101"})
	if w.Code != http.StatusConflict {
		t.Fatalf("login before attendance: status %d, want 409", w.Code)
	}

	// Register attendance for two of three owners. Registration is the
	// voter's entry point and hands back their token.
	for _, code := range []string{"A101", "B202"} {
		w = app.request(t, http.MethodPost, "/voting/register-attendance", "",
			RegisterAttendanceRequest{Code: code, IsPower: false})
		if w.Code != http.StatusOK {
			t.Fatalf("attendance for %s: status %d, body %s", code, w.Code, w.Body.String())
		}
		if resp := decode[RegisterAttendanceResponse](t, w); resp.Token == "" {
			t.Fatalf("registration for %s returned no token", code)
		}
	}

	// Repeat registration is rejected.
	w = app.request(t, http.MethodPost, "/voting/register-attendance", "",
		RegisterAttendanceRequest{Code: "A101"})
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat registration: status %d, want 409", w.Code)
	}

	// Now the voter can log in.
	w = app.request(t, http.MethodPost, "/auth/login/voter", "", VoterLoginRequest{Code: "A101"})
	if w.Code != http.StatusOK {
		t.Fatalf("voter login: status %d, body %s", w.Code, w.Body.String())
	}
	login := decode[VoterAuthResponse](t, w)
	if login.Token == "" || login.Participant == nil || login.Participant.Code != "A101" {
		t.Fatalf("unexpected login payload: %s", w.Body.String())
	}

	// Quorum: 75 of 100 present.
	w = app.request(t, http.MethodGet, "/voting/aforo", admin, nil)
	aforo := decode[services.Aforo](t, w)
	if !aforo.QuorumMet || aforo.CoefficientRatePercent != 75.0 {
		t.Fatalf("unexpected aforo: %+v", aforo)
	}

	// Admin opens a question.
	w = app.request(t, http.MethodPost, "/voting/questions", admin, services.QuestionInput{
		Text: "Approve the budget?", Type: "yesno",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create question: status %d, body %s", w.Code, w.Body.String())
	}
	question := decode[models.Question](t, w)

	// Voters cast ballots.
	w = app.request(t, http.MethodPost, "/voting/vote", login.Token, SubmitVoteRequest{
		QuestionID: question.ID, Answers: []string{models.OptionLabelYes},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("vote: status %d, body %s", w.Code, w.Body.String())
	}
	w = app.request(t, http.MethodPost, "/voting/vote", app.voterToken(t, "B202"), SubmitVoteRequest{
		QuestionID: question.ID, Answers: []string{models.OptionLabelNo},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("second vote: status %d, body %s", w.Code, w.Body.String())
	}

	// A repeat ballot is rejected.
	w = app.request(t, http.MethodPost, "/voting/vote", login.Token, SubmitVoteRequest{
		QuestionID: question.ID, Answers: []string{models.OptionLabelNo},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate vote: status %d, want 409", w.Code)
	}

	// Weighted results: Sí 40, No 35.
	w = app.request(t, http.MethodGet, fmt.Sprintf("/voting/results/%d", question.ID), admin, nil)
	results := decode[services.QuestionResults](t, w)
	if results.TotalParticipants != 2 {
		t.Errorf("total_participants = %d, want 2", results.TotalParticipants)
	}
	if len(results.Results) != 2 ||
		results.Results[0].Answer != models.OptionLabelYes || results.Results[0].Percentage != 40.0 ||
		results.Results[1].Answer != models.OptionLabelNo || results.Results[1].Percentage != 35.0 {
		t.Errorf("unexpected results: %+v", results.Results)
	}
}

func TestRoleEnforcement(t *testing.T) {
	app := newTestApp(t)
	voter := app.voterToken(t, "A101")

	// Voter tokens cannot reach admin endpoints.
	w := app.request(t, http.MethodPost, "/voting/questions", voter, services.QuestionInput{
		Text: "Q", Type: "yesno",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("voter on admin route: status %d, want 403", w.Code)
	}

	// Tallies are an admin-only view.
	w = app.request(t, http.MethodGet, "/voting/results/1", voter, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("voter on results: status %d, want 403", w.Code)
	}
	w = app.request(t, http.MethodGet, "/voting/aforo", voter, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("voter on aforo: status %d, want 403", w.Code)
	}

	// Admin tokens cannot vote.
	w = app.request(t, http.MethodPost, "/voting/vote", app.adminToken(t), SubmitVoteRequest{
		QuestionID: 1, Answers: []string{models.OptionLabelYes},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("admin on voter route: status %d, want 403", w.Code)
	}

	// No token at all.
	w = app.request(t, http.MethodGet, "/voting/questions/active", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", w.Code)
	}

	// Garbage token.
	w = app.request(t, http.MethodGet, "/voting/questions/active", "not.a.token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", w.Code)
	}
}

func TestAdminRemoveAttendanceAndReset(t *testing.T) {
	app := newTestApp(t)
	admin := app.adminToken(t)

	app.request(t, http.MethodPost, "/participants/bulk", admin, BulkImportRequest{
		Participants: map[string]services.BulkEntry{
			"A101": {Name: "Ana", Coefficient: coefPtr(100)},
		},
	})
	app.request(t, http.MethodPost, "/voting/register-attendance", "",
		RegisterAttendanceRequest{Code: "A101"})

	w := app.request(t, http.MethodDelete, "/voting/admin/participants/A101", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove attendance: status %d, body %s", w.Code, w.Body.String())
	}

	var p models.Participant
	app.db.First(&p, "code = ?", "A101")
	if p.Present {
		t.Error("participant should no longer be present")
	}

	w = app.request(t, http.MethodDelete, "/voting/admin/reset", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d, body %s", w.Code, w.Body.String())
	}
	var count int64
	app.db.Model(&models.Participant{}).Count(&count)
	if count != 0 {
		t.Errorf("roster not wiped: %d rows", count)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	app := newTestApp(t)
	admin := app.adminToken(t)

	w := app.request(t, http.MethodGet, "/settings", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings: status %d", w.Code)
	}
	if got := decode[SettingsResponse](t, w); got.AssemblyName != "" {
		t.Errorf("fresh settings should be empty, got %q", got.AssemblyName)
	}

	w = app.request(t, http.MethodPut, "/settings", admin, UpdateSettingsRequest{
		AssemblyName: "Conjunto Torres del Parque",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update settings: status %d, body %s", w.Code, w.Body.String())
	}

	w = app.request(t, http.MethodGet, "/settings", admin, nil)
	if got := decode[SettingsResponse](t, w); got.AssemblyName != "Conjunto Torres del Parque" {
		t.Errorf("assembly_name = %q", got.AssemblyName)
	}
}

func coefPtr(f float64) *float64 {
	return &f
}
