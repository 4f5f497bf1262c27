package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/tests/testutil"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *testutil.App, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestRegistrationThroughAllStages(t *testing.T) {
	app := testutil.NewApp(t)

	status, payload := call(t, app, http.MethodPost, "/api/societies/register", "", testutil.Registration("Robotics Society", "Faculty of Engineering"))
	require.Equal(t, http.StatusCreated, status, payload.Message)
	var submitted dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &submitted))
	require.Equal(t, string(models.StatusPendingDean), submitted.Status)

	approve := fmt.Sprintf("/api/admin/approve-registration/%d", submitted.ID)

	status, _ = call(t, app, http.MethodPost, approve, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodPost, approve, app.Token(t, "arts_dean"), nil)
	require.Equal(t, http.StatusForbidden, status)

	for _, stage := range []struct {
		admin string
		want  models.ApplicationStatus
	}{
		{"eng_dean", models.StatusPendingAR},
		{"ar", models.StatusPendingVC},
		{"vc", models.StatusApproved},
	} {
		status, payload = call(t, app, http.MethodPost, approve, app.Token(t, stage.admin), nil)
		require.Equal(t, http.StatusOK, status, payload.Message)

		var decision dto.DecisionResponse
		require.NoError(t, json.Unmarshal(payload.Data, &decision))
		require.Equal(t, string(stage.want), decision.Application.Status)
		require.Equal(t, "registration approved", decision.Activity.Action)
		require.Equal(t, app.Admins[stage.admin].Name, decision.Activity.ActorName)
	}

	var logs []models.ActivityLog
	require.NoError(t, app.DB.Where("entity_type = ? AND entity_id = ?", "application", submitted.ID).Order("id ASC").Find(&logs).Error)
	actions := make([]string, 0, len(logs))
	for _, entry := range logs {
		actions = append(actions, entry.Action)
	}
	require.Equal(t, []string{"registration submitted", "registration approved", "registration approved", "registration approved"}, actions)

	var society models.Society
	require.NoError(t, app.DB.Where("name = ?", "Robotics Society").First(&society).Error)
	require.Equal(t, models.SocietyStatusActive, society.Status)
}

func TestEventRejectedByRegistrar(t *testing.T) {
	app := testutil.NewApp(t)

	status, payload := call(t, app, http.MethodPost, "/api/events/request", "", testutil.Event("Robotics Society"))
	require.Equal(t, http.StatusCreated, status, payload.Message)
	var submitted dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &submitted))
	require.Equal(t, string(models.StatusPendingAR), submitted.Status)

	status, _ = call(t, app, http.MethodPost, fmt.Sprintf("/api/events/admin/approve/%d", submitted.ID), app.Token(t, "eng_dean"), nil)
	require.Equal(t, http.StatusForbidden, status, "events skip the dean")

	reject := fmt.Sprintf("/api/events/admin/reject/%d", submitted.ID)
	status, payload = call(t, app, http.MethodPost, reject, app.Token(t, "ar"), dto.DecisionRequest{Reason: "incomplete documents"})
	require.Equal(t, http.StatusOK, status, payload.Message)

	var stored models.Application
	require.NoError(t, app.DB.First(&stored, submitted.ID).Error)
	require.Equal(t, models.StatusRejected, stored.Status)
	require.Equal(t, "incomplete documents", stored.RejectionReason)

	status, _ = call(t, app, http.MethodPost, reject, app.Token(t, "vc"), dto.DecisionRequest{Reason: "again"})
	require.Equal(t, http.StatusConflict, status)
}

func TestRemovedAdminLosesAccess(t *testing.T) {
	app := testutil.NewApp(t)
	deanToken := app.Token(t, "arts_dean")

	status, _ := call(t, app, http.MethodGet, "/api/admin/dashboard", deanToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, payload := call(t, app, http.MethodPost, "/api/admin/ar/manage-admin/remove", app.Token(t, "ar"), dto.AdminUserRemoveRequest{Email: "dean@arts.pdn.ac.lk"})
	require.Equal(t, http.StatusOK, status, payload.Message)

	status, _ = call(t, app, http.MethodGet, "/api/admin/dashboard", deanToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}
