package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormat(t *testing.T) {
	err := New(CodeNetwork, "connection refused")
	assert.Equal(t, "[NET_001] connection refused", err.Error())

	withDetail := err.WithDetail("host=tox.charite.de")
	assert.Equal(t, "[NET_001] connection refused: host=tox.charite.de", withDetail.Error())
	// The original must be untouched.
	assert.Empty(t, err.Detail)
}

func TestWrapPreservesChain(t *testing.T) {
	root := stderrors.New("dial tcp: connection reset")
	wrapped := Wrap(root, CodeNetwork, "ADMETlab submission failed")
	require.NotNil(t, wrapped)

	assert.True(t, stderrors.Is(wrapped, root))
	assert.Equal(t, CodeNetwork, GetCode(wrapped))

	// Wrapping again with CodeUnknown keeps the original classification.
	rewrapped := Wrap(wrapped, CodeUnknown, "batch failed")
	assert.Equal(t, CodeNetwork, rewrapped.Code)
}

func TestWrapNil(t *testing.T) {
	var err error
	assert.Nil(t, Wrap(err, CodeNetwork, "should be nil"))
}

func TestIsCode(t *testing.T) {
	err := RateLimited("too many queries")
	outer := fmt.Errorf("protox: %w", err)

	assert.True(t, IsCode(outer, CodeRateLimited))
	assert.False(t, IsCode(outer, CodeNetwork))
	assert.False(t, IsCode(nil, CodeNetwork))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeInvalidStructure, GetCode(InvalidStructure("bad SMILES")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Network("flaky")))
	assert.False(t, IsRetryable(RemoteService("rejected")))
	assert.False(t, IsRetryable(RateLimited("slow down")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "CHEM", ModuleForCode(CodeInvalidStructure))
	assert.Equal(t, "NET", ModuleForCode(CodeRateLimited))
	assert.Equal(t, "REMOTE", ModuleForCode(CodeParse))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "invalid molecule structure", DefaultMessageForCode(CodeInvalidStructure))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
