package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	err := NOT_FOUND.New("case %s not found", "c1").
		WithMetadata(CaseMetadata{CaseID: "c1"})

	require.Equal(t, NOT_FOUND.Code, err.Code())
	require.Equal(t, "NOT_FOUND", err.CodeName())
	require.Equal(t, http.StatusNotFound, err.HTTPStatus())
	require.Contains(t, err.Error(), "case c1 not found")
	require.Equal(t, "c1", err.Metadata()["case_id"])
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := XRPL_ERROR.Wrap(cause)

	require.Equal(t, XRPL_ERROR.Code, err.Code())
	require.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	require.Contains(t, err.Error(), "connection refused")
}

func TestErrorAsInterface(t *testing.T) {
	var err error = VERIFY_AMOUNT_MISMATCH.New("unexpected amount").
		WithMetadata(MismatchMetadata{TxHash: "H", Expected: "10", Got: "9"})

	typed, ok := err.(Error)
	require.True(t, ok)
	require.Equal(t, VERIFY_AMOUNT_MISMATCH.Code, typed.Code())
	require.Equal(t, "10", typed.Metadata()["expected"])
	require.Equal(t, "9", typed.Metadata()["got"])
}
