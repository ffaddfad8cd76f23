package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerworks/towerd/internal/domain"
)

func TestFromDomain_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		typ    Type
		status int
	}{
		{domain.ErrInvalidBet, TypeValidation, http.StatusBadRequest},
		{domain.ErrBetAboveMax, TypeValidation, http.StatusBadRequest},
		{domain.ErrInsufficientFunds, TypeValidation, http.StatusBadRequest},
		{domain.ErrInvalidMove, TypeValidation, http.StatusBadRequest},
		{domain.ErrSessionAlreadyActive, TypeConflict, http.StatusConflict},
		{domain.ErrInteractionInProgress, TypeConflict, http.StatusConflict},
		{domain.ErrSessionNotFound, TypeNotFound, http.StatusNotFound},
		{domain.ErrReplayUnavailable, TypeNotFound, http.StatusNotFound},
		{domain.ErrEligibilityDenied, TypeForbidden, http.StatusForbidden},
		{domain.ErrPersistenceFailure, TypeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			structured := FromDomain(tc.err)
			require.NotNil(t, structured)
			assert.Equal(t, tc.typ, structured.Type)
			assert.Equal(t, tc.status, structured.HTTPStatus())
			assert.ErrorIs(t, structured, tc.err)
		})
	}
}

func TestFromDomain_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("start: %w", domain.ErrInsufficientFunds)
	structured := FromDomain(wrapped)
	assert.Equal(t, TypeValidation, structured.Type)
}

func TestFromDomain_UnknownErrorIsInternalWithGenericMessage(t *testing.T) {
	structured := FromDomain(stderrors.New("pgx: connection refused"))
	assert.Equal(t, TypeInternal, structured.Type)
	assert.Equal(t, "internal server error", structured.Message)
}

func TestFromDomain_Nil(t *testing.T) {
	assert.Nil(t, FromDomain(nil))
}

func TestFromDomain_PassThroughStructured(t *testing.T) {
	original := &Error{Type: TypeConflict, Message: "busy"}
	assert.Same(t, original, FromDomain(fmt.Errorf("wrap: %w", original)))
}
