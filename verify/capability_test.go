package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
)

func TestCheckCapabilityFlagsMissingHasCheck(t *testing.T) {
	src := `intent "admin action"
scope admin.action
risk low
requires admin

contract do_thing():
  body:
    return
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.True(t, hasCode(sink.All(), diag.F004))
}

func TestCheckCapabilityHasSatisfiesRequires(t *testing.T) {
	src := `intent "admin action"
scope admin.action
risk low
requires admin

contract do_thing():
  body:
    if has admin:
      return
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.False(t, hasCode(sink.All(), diag.F004))
}

func TestCheckCapabilityUndeclaredNameInPermissions(t *testing.T) {
	src := `intent "admin action"
scope admin.action
risk low

contract do_thing():
  permissions:
    grants [admin]
  body:
    return
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.True(t, hasCode(sink.All(), diag.F005))
}

func TestCheckCapabilityGrantDenyOverlap(t *testing.T) {
	src := `intent "admin action"
scope admin.action
risk low
requires admin

contract do_thing():
  permissions:
    grants [admin]
    denies [admin]
  body:
    return
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.True(t, hasCode(sink.All(), diag.F006))
}

func TestCheckCapabilityDeniedButChecked(t *testing.T) {
	src := `intent "admin action"
scope admin.action
risk low
requires admin

contract do_thing():
  permissions:
    denies [admin]
  body:
    if has admin:
      return
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.True(t, hasCode(sink.All(), diag.F002))
}

func TestCheckCapabilityTaintedToSink(t *testing.T) {
	src := `intent "record profile"
scope profile.record
risk low

type Profile:
  ssn: String [sensitive]

contract record_profile(p: Profile):
  body:
    emit Recorded(id: p.ssn)
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.True(t, hasCode(sink.All(), diag.F001))
}

func TestCheckCapabilityGrantedLabelAllowsSink(t *testing.T) {
	src := `intent "record profile"
scope profile.record
risk low

type Profile:
  ssn: String [sensitive]

contract record_profile(p: Profile):
  permissions:
    grants [sensitive]
  body:
    emit Recorded(id: p.ssn)
`
	f, c := parseFirst(t, src)
	fp := fingerprint.Compute(c)
	sink := diag.NewSink()
	CheckCapability(f, c, fp, CollectTypeLabels(f), sink)
	assert.False(t, hasCode(sink.All(), diag.F001))
}
