package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase           { return r.phase }
func (r recorder) Update(_ time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"retreat", PhaseDisposition, &log})
	r.Register(recorder{"refill", PhasePopulation, &log})
	r.Register(recorder{"guards", PhaseDisposition, &log})
	r.Register(recorder{"flush", PhaseOutput, &log})

	r.Tick(100 * time.Millisecond)

	assert.Equal(t, []string{"refill", "retreat", "guards", "flush", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())
	assert.Equal(t, "disposition", PhaseDisposition.String())
}
