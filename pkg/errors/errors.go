package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code       uint16
	Name       string
	HTTPStatus int
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	HTTPStatus() int
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) HTTPStatus() int {
	return e.code.HTTPStatus
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type CaseMetadata struct {
	CaseID string `json:"case_id"`
}

type ActorMetadata struct {
	CaseID  string `json:"case_id"`
	ActorID string `json:"actor_id"`
}

type WalletMetadata struct {
	MemberID string `json:"member_id"`
	Address  string `json:"address"`
}

type ItemMetadata struct {
	CaseID string `json:"case_id"`
	ItemID string `json:"item_id"`
}

type TxMetadata struct {
	TxHash string `json:"tx_hash"`
}

type MismatchMetadata struct {
	TxHash   string `json:"tx_hash"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

type RegularKeyMetadata struct {
	AssetID string `json:"asset_id"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

type BalanceMetadata struct {
	AssetID  string `json:"asset_id"`
	Balance  string `json:"balance"`
	Required string `json:"required"`
}

type SignerListMetadata struct {
	CaseID string `json:"case_id"`
	Reason string `json:"reason"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", http.StatusInternalServerError}

var VALIDATION_ERROR = Code[map[string]any]{
	1,
	"VALIDATION_ERROR",
	http.StatusBadRequest,
}

var FORBIDDEN = Code[ActorMetadata]{2, "FORBIDDEN", http.StatusForbidden}
var NOT_FOUND = Code[CaseMetadata]{3, "NOT_FOUND", http.StatusNotFound}

var WALLET_NOT_VERIFIED = Code[WalletMetadata]{
	4,
	"WALLET_NOT_VERIFIED",
	http.StatusPreconditionFailed,
}

var REGULAR_KEY_UNVERIFIED = Code[RegularKeyMetadata]{
	5,
	"REGULAR_KEY_UNVERIFIED",
	http.StatusPreconditionFailed,
}

var XRPL_TX_NOT_FOUND = Code[TxMetadata]{6, "XRPL_TX_NOT_FOUND", http.StatusNotFound}

var VERIFY_FROM_MISMATCH = Code[MismatchMetadata]{
	7,
	"VERIFY_FROM_MISMATCH",
	http.StatusUnprocessableEntity,
}

var VERIFY_DESTINATION_MISMATCH = Code[MismatchMetadata]{
	8,
	"VERIFY_DESTINATION_MISMATCH",
	http.StatusUnprocessableEntity,
}

var VERIFY_AMOUNT_MISMATCH = Code[MismatchMetadata]{
	9,
	"VERIFY_AMOUNT_MISMATCH",
	http.StatusUnprocessableEntity,
}

var VERIFY_MEMO_MISMATCH = Code[MismatchMetadata]{
	10,
	"VERIFY_MEMO_MISMATCH",
	http.StatusUnprocessableEntity,
}

var INSUFFICIENT_BALANCE = Code[BalanceMetadata]{
	11,
	"INSUFFICIENT_BALANCE",
	http.StatusUnprocessableEntity,
}

var SIGNER_LIST_FAILED = Code[SignerListMetadata]{
	12,
	"SIGNER_LIST_FAILED",
	http.StatusBadGateway,
}

var SYSTEM_SIGNER_MISSING = Code[CaseMetadata]{
	13,
	"SYSTEM_SIGNER_MISSING",
	http.StatusPreconditionFailed,
}

var XRPL_ERROR = Code[map[string]any]{14, "XRPL_ERROR", http.StatusBadGateway}
