package discovery

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/runorder/pkg/component"
)

type plainSeeder struct{ id string }

func (s plainSeeder) ComponentID() string { return s.id }
func (plainSeeder) Priority() int         { return 10 }
func (plainSeeder) After() []string       { return []string{"app.Base"} }

type attributedSeeder struct {
	plainSeeder
	attr *Attribute
}

func (s attributedSeeder) OrderingAttribute() *Attribute { return s.attr }

type versionedService struct{}

func (versionedService) ComponentID() string { return "app.Versioned" }
func (versionedService) Version() string     { return "2.1.0" }

type panickingSeeder struct{}

func (panickingSeeder) ComponentID() string { return "app.Panics" }
func (panickingSeeder) Priority() int       { panic("boom") }

type blankSeeder struct{}

func (blankSeeder) ComponentID() string { return "" }

func intPtr(n int) *int { return &n }

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		candidate  Candidate
		wantPrio   int
		wantAfter  []string
		wantBefore []string
	}{
		{"plain methods", plainSeeder{"app.Plain"}, 10, []string{"app.Base"}, nil},
		{
			"attribute overrides plain",
			attributedSeeder{plainSeeder{"app.Attr"}, &Attribute{Priority: intPtr(1), Before: []string{"app.Late"}}},
			1, nil, []string{"app.Late"},
		},
		{
			"attribute without priority uses default",
			attributedSeeder{plainSeeder{"app.Attr"}, &Attribute{After: []string{"app.X"}}},
			component.DefaultPriority, []string{"app.X"}, nil,
		},
		{"nil attribute falls back", attributedSeeder{plainSeeder{"app.Nil"}, nil}, 10, []string{"app.Base"}, nil},
		{"nothing declared", versionedService{}, component.DefaultPriority, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Extract(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.candidate.ComponentID(), d.ID)
			assert.Equal(t, tt.wantPrio, d.Priority)
			assert.Equal(t, tt.wantAfter, d.After)
			assert.Equal(t, tt.wantBefore, d.Before)
		})
	}
}

func TestExtract_Version(t *testing.T) {
	d, err := Extract(versionedService{})
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", d.Version)
}

func TestExtract_Failures(t *testing.T) {
	for _, c := range []Candidate{panickingSeeder{}, blankSeeder{}, nil} {
		_, err := Extract(c)
		assert.Error(t, err)
	}
}

func TestDiscover_Candidates(t *testing.T) {
	d, err := New(
		WithLogger(log.New(io.Discard)),
		WithCandidates(
			plainSeeder{"app.Plain"},
			panickingSeeder{},
			attributedSeeder{plainSeeder{"app.Base"}, &Attribute{Priority: intPtr(90)}},
		),
	)
	require.NoError(t, err)

	order, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"app.Base", "app.Plain"}, order)
	assert.Equal(t, 1, d.Stats().Skipped)
}
