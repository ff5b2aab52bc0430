package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestError() {
	s.Run("message wins over code", func() {
		s.Equal("credit card not found", (&Error{Code: CodeNotFound, Message: "credit card not found"}).Error())
	})

	s.Run("falls back to the code", func() {
		s.Equal("payload_too_large", (&Error{Code: CodePayloadTooLarge}).Error())
	})
}

func (s *DomainErrorsSuite) TestIs() {
	s.Run("matches by code", func() {
		s.ErrorIs(New(CodeConflict, "customer exists"), &Error{Code: CodeConflict})
	})

	s.Run("ignores other codes and plain errors", func() {
		err := &Error{Code: CodeNotFound}
		s.False(err.Is(&Error{Code: CodeInternal}))
		s.False(err.Is(errors.New("not_found")))
	})

	s.Run("walks the chain", func() {
		inner := &Error{Code: CodeNotFound}
		outer := fmt.Errorf("load card: %w", &Error{Code: CodeInternal, Err: inner})
		s.ErrorIs(outer, &Error{Code: CodeNotFound})
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps an existing code", func() {
		wrapped := Wrap(New(CodeNotFound, "address not found"), CodeInternal, "resolve billing address")

		var domainErr *Error
		s.Require().ErrorAs(wrapped, &domainErr)
		s.Equal(CodeNotFound, domainErr.Code)
		s.Equal("resolve billing address", domainErr.Message)
	})

	s.Run("applies the code to plain errors", func() {
		cause := errors.New("gzip: short write")
		wrapped := Wrap(cause, CodeInternal, "failed to compress response")

		s.True(HasCode(wrapped, CodeInternal))
		s.ErrorIs(wrapped, cause)
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeValidation, "email is required"), CodeValidation))
	s.False(HasCode(New(CodeValidation, "email is required"), CodeBadRequest))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}
