package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
)

func TestDecodeNamesJSONFields(t *testing.T) {
	var req CreateOccurrenceRequest
	err := Decode([]byte(`{"title":"","latitude":120}`), &req)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	msg := err.Error()
	assert.Contains(t, msg, "title is required")
	assert.Contains(t, msg, "category_id is required")
	assert.Contains(t, msg, "latitude out of range")
}

func TestWorkflowBodies(t *testing.T) {
	var triage TriageRequest
	require.NoError(t, Decode([]byte(`{"department_id":1,"priority":"HIGH","assigned_to_id":7}`), &triage))
	assert.Equal(t, "HIGH", triage.Priority)
	require.NotNil(t, triage.AssignedToID)
	assert.Equal(t, int64(7), *triage.AssignedToID)

	var reject RejectRequest
	require.NoError(t, Decode([]byte(`{"rejection_reason":"not fixed"}`), &reject))
	assert.Equal(t, "not fixed", reject.RejectionReason)
	var legacy RejectRequest
	err := Decode([]byte(`{"reason":"not fixed"}`), &legacy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejection_reason is required")

	var evaluation EvaluationRequest
	require.NoError(t, Decode([]byte(`{"rating":4}`), &evaluation))
	assert.Nil(t, evaluation.WouldRecommend)
	require.NoError(t, Decode([]byte(`{"rating":4,"would_recommend":false}`), &evaluation))
	require.NotNil(t, evaluation.WouldRecommend)
	assert.False(t, *evaluation.WouldRecommend)
}

func TestDecodeRejectsBadBodies(t *testing.T) {
	var req LoginRequest
	assert.True(t, domain.IsDomainError(Decode(nil, &req), domain.ErrCodeInvalid))
	assert.True(t, domain.IsDomainError(Decode([]byte(`{`), &req), domain.ErrCodeInvalid))

	require.NoError(t, Decode([]byte(`{"email":"a@b.c","password":"x"}`), &req))
	assert.Equal(t, "a@b.c", req.Email)
}

func TestCategoryColor(t *testing.T) {
	ok := CategoryRequest{Name: "Buraco", DepartmentID: 1, Color: "#EF4444"}
	assert.NoError(t, Validate(&ok))

	bad := CategoryRequest{Name: "Buraco", DepartmentID: 1, Color: "#FFF"}
	err := Validate(&bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color must be a #RRGGBB color")
}

func TestEnvelope(t *testing.T) {
	assert.JSONEq(t, `{"status":"success","data":{"id":1}}`, NewSuccess(map[string]int{"id": 1}, nil).String())
	assert.JSONEq(t, `{"status":"error","code":"NOT_FOUND","error":"missing"}`, NewError("NOT_FOUND", "missing", nil).String())
}
