package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailChainsEntries(t *testing.T) {
	trail := NewTrail()

	e1 := trail.Append("posting_committed request_id=req-1")
	e2 := trail.Append("posting_committed request_id=req-2")
	e3 := trail.Append("posting_reversed original=tx-1")

	require.Len(t, trail.Entries(), 3)
	assert.Equal(t, e1.Hash, e2.PreviousHash)
	assert.Equal(t, e2.Hash, e3.PreviousHash)
	assert.True(t, VerifyChain(trail.Entries()))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	trail := NewTrail()
	trail.Append("posting_committed request_id=req-1")
	trail.Append("posting_committed request_id=req-2")
	trail.Append("posting_committed request_id=req-3")

	chain := trail.Entries()
	require.True(t, VerifyChain(chain))

	originalPayload := chain[1].Payload
	chain[1].Payload = "posting_committed request_id=req-99"
	assert.False(t, VerifyChain(chain), "payload edit must break the chain")
	chain[1].Payload = originalPayload

	originalHash := chain[1].Hash
	chain[1].Hash = "deadbeef"
	assert.False(t, VerifyChain(chain), "hash edit must break the chain")
	chain[1].Hash = originalHash

	chain[2].PreviousHash = "deadbeef"
	assert.False(t, VerifyChain(chain), "broken link must fail verification")
}

func TestVerifyChainEmpty(t *testing.T) {
	assert.True(t, VerifyChain(nil))
}
