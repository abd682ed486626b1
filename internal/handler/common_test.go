package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/repository"
	"github.com/iliyamo/smartstay/internal/service"
)

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&model.VisitorInput{VisitorName: "Ramesh", VisitorPhone: "555", Purpose: "Visit", ExpectedDate: "2025-03-01"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "visitor_phone", verr.Field)

	err = v.Validate(&model.VisitorInput{VisitorName: "Ramesh", VisitorPhone: "9998887770", Purpose: "Visit", ExpectedDate: "03/01/2025"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "expected_date", verr.Field)

	assert.NoError(t, v.Validate(&model.VisitorInput{VisitorName: "Ramesh", VisitorPhone: "9998887770", Purpose: "Visit", ExpectedDate: "2025-03-01"}))
	assert.NoError(t, v.Validate(&service.HostelInfoInput{Name: "North Block"}))
}

func TestFailMapsSentinelErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{&model.ValidationError{Field: "amount", Message: "amount is required"}, http.StatusBadRequest, `{"field":"amount","error":"amount is required"}`},
		{repository.ErrNotFound, http.StatusNotFound, `{"error":"not found"}`},
		{repository.ErrForbidden, http.StatusForbidden, `{"error":"forbidden"}`},
		{fmt.Errorf("%w: visitor 3 changed concurrently", repository.ErrInvalidTransition), http.StatusConflict, `{"error":"invalid status transition"}`},
		{repository.ErrCapacity, http.StatusConflict, `{"error":"room is full"}`},
		{repository.ErrRoomOccupied, http.StatusConflict, `{"error":"Cannot delete an occupied room"}`},
		{fmt.Errorf("gave up after 5 attempts: %w", repository.ErrTxConflict), http.StatusConflict, `{"error":"conflicting update, please retry"}`},
		{errors.New("connection reset"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	b := newBase(nil)
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, b.fail(c, tc.err))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.JSONEq(t, tc.body, rec.Body.String())
	}
}

func TestPathIDRejectsNonPositive(t *testing.T) {
	e := echo.New()
	for _, raw := range []string{"0", "-1", "abc", ""} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, err := pathID(c, "id")
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr, raw)
	}
}

func TestBindAndValidateTrimsBeforeChecking(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	body := `{"visitor_name":" Ramesh ","visitor_phone":" 9998887770","purpose":"Visit","expected_date":"2025-03-01 "}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var in model.VisitorInput
	require.NoError(t, bindAndValidate(c, &in))
	assert.Equal(t, "Ramesh", in.VisitorName)
	assert.Equal(t, "9998887770", in.VisitorPhone)
	assert.Equal(t, "2025-03-01", in.ExpectedDate)
}
