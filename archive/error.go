package archive

import (
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/veriphys/go-pbt/core/result/failure"
)

func keyString(key []byte) string {
	s, _ := multibase.Encode(multibase.Base58BTC, key)
	return s
}

type MissingEntryError struct {
	failure.NamedWithStackTrace
	key []byte
}

func NewMissingEntryError(key []byte) MissingEntryError {
	return MissingEntryError{failure.NamedWithCurrentStackTrace("MissingEntry"), key}
}

func (mee MissingEntryError) Key() []byte {
	return mee.key
}

func (mee MissingEntryError) Error() string {
	return fmt.Sprintf("chip key %s has no archive entry", keyString(mee.key))
}

type DuplicateEntryError struct {
	failure.NamedWithStackTrace
	key []byte
}

func NewDuplicateEntryError(key []byte) DuplicateEntryError {
	return DuplicateEntryError{failure.NamedWithCurrentStackTrace("DuplicateEntry"), key}
}

func (dee DuplicateEntryError) Key() []byte {
	return dee.key
}

func (dee DuplicateEntryError) Error() string {
	return fmt.Sprintf("chip key %s is already archived", keyString(dee.key))
}

type InvalidStatusError struct {
	failure.NamedWithStackTrace
	key   []byte
	value []byte
}

func NewInvalidStatusError(key []byte, value []byte) InvalidStatusError {
	return InvalidStatusError{failure.NamedWithCurrentStackTrace("InvalidStatus"), key, value}
}

func (ise InvalidStatusError) Key() []byte {
	return ise.key
}

func (ise InvalidStatusError) Error() string {
	return fmt.Sprintf("archive entry for chip key %s holds malformed status %x", keyString(ise.key), ise.value)
}

type UnauthorizedError struct {
	failure.NamedWithStackTrace
}

func NewUnauthorizedError() UnauthorizedError {
	return UnauthorizedError{failure.NamedWithCurrentStackTrace("Unauthorized")}
}

func (ue UnauthorizedError) Error() string {
	return "capability was not issued by this archive"
}
