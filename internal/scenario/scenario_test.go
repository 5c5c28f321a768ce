package scenario

import (
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/mechanics"
	"github.com/abhisek/forensiq/internal/session"
)

const minimal = `
schema_version: v1.0.0
name: minimal
module: Minimal
tasks:
  - name: Test Fire
    ledger_id: Task1
    units:
      - name: Recovery Box
        conditions: [fired]
    mechanic:
      kind: gun
      unit: Recovery Box
      box: {min: [-1, -1, -1], max: [1, 1, 1]}
`

func TestBuiltinsParseAndBuild(t *testing.T) {
	names := Builtins()
	require.Equal(t, []string{"module1", "module2", "module3"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			def, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, []string{"Task1", "Task2", "Task3"}, def.ExpectedTasks())

			ledger := assessment.NewLedger(LedgerConfig(def, 0), nil)
			plan, err := Build(def, ledger, engine.NewRecorder(), Options{})
			require.NoError(t, err)
			assert.Equal(t, def.Module, plan.Module)
			assert.Len(t, plan.Sequencers, 3)
			assert.Len(t, plan.Mechanics, 3)
			assert.NotEmpty(t, plan.Beats, "built-ins use the default chain")
			assert.Equal(t, 20*time.Minute, def.Duration)
		})
	}
}

func TestParse_Minimal(t *testing.T) {
	def, err := Parse([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "Minimal", def.Module)
	require.Len(t, def.Tasks, 1)
	require.NotNil(t, def.Tasks[0].Mechanic)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, def.Tasks[0].Mechanic.Box.Max.Vec3())
	assert.Empty(t, def.Beats)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "not yaml",
			mutate:  func(string) string { return "tasks: [" },
			wantErr: "decode yaml",
		},
		{
			name:    "empty",
			mutate:  func(string) string { return "" },
			wantErr: "empty definition",
		},
		{
			name:    "unknown field",
			mutate:  func(s string) string { return s + "colour: red\n" },
			wantErr: "colour",
		},
		{
			name:    "unknown kind",
			mutate:  func(s string) string { return strings.Replace(s, "kind: gun", "kind: laser", 1) },
			wantErr: "kind",
		},
		{
			name:    "gun without box",
			mutate:  func(s string) string { return strings.Replace(s, "      box: {min: [-1, -1, -1], max: [1, 1, 1]}\n", "", 1) },
			wantErr: "/tasks/0/mechanic",
		},
		{
			name:    "short vector",
			mutate:  func(s string) string { return strings.Replace(s, "max: [1, 1, 1]", "max: [1, 1]", 1) },
			wantErr: "/tasks/0/mechanic/box",
		},
		{
			name:    "major version mismatch",
			mutate:  func(s string) string { return strings.Replace(s, "v1.0.0", "v2.0.0", 1) },
			wantErr: "incompatible",
		},
		{
			name:    "newer minor version",
			mutate:  func(s string) string { return strings.Replace(s, "v1.0.0", "v1.3.0", 1) },
			wantErr: "newer than supported",
		},
		{
			name:    "dangling unit",
			mutate:  func(s string) string { return strings.Replace(s, "unit: Recovery Box", "unit: Shooting Range", 1) },
			wantErr: `nonexistent unit "Shooting Range"`,
		},
		{
			name:    "missing condition",
			mutate:  func(s string) string { return strings.Replace(s, "conditions: [fired]", "conditions: [aimed]", 1) },
			wantErr: `lacks condition "fired"`,
		},
		{
			name:    "default and custom beats",
			mutate:  func(s string) string { return s + "default_beats: true\nbeats:\n  - beat: Intro\n" },
			wantErr: "mutually exclusive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(minimal)))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScenario)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDefinition(t *testing.T) {
	base := func() *Definition {
		def, err := Parse([]byte(minimal))
		require.NoError(t, err)
		return def
	}

	t.Run("duplicate task", func(t *testing.T) {
		def := base()
		def.Tasks = append(def.Tasks, def.Tasks[0])
		err := validateDefinition(def)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate task name: "Test Fire"`)
		assert.Contains(t, err.Error(), `duplicate ledger ID: "Task1"`)
	})

	t.Run("evidence must be unordered with step conditions", func(t *testing.T) {
		def := base()
		def.Tasks = append(def.Tasks, TaskDef{
			Name:  "Evidence",
			Units: []UnitDef{{Name: "Knife", Conditions: []string{"final", "initial"}}},
			Mechanic: &MechanicDef{Kind: KindEvidence, Items: []EvidenceDef{
				{Unit: "Knife", Target: "knife"},
			}},
		})
		err := validateDefinition(def)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires an unordered task")
		assert.Contains(t, err.Error(), "conditions must be [initial final]")
	})

	t.Run("beat cycle", func(t *testing.T) {
		def := base()
		def.Beats = []director.BeatSpec{
			{Beat: "A", Next: "B"},
			{Beat: "B", Next: "A"},
		}
		err := validateDefinition(def)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `beat chain revisits "A"`)
	})

	t.Run("beat references", func(t *testing.T) {
		def := base()
		def.Beats = []director.BeatSpec{
			{Beat: "A", Await: "task2.done", Next: "Missing"},
			{Beat: "B", Await: "door.opened"},
		}
		err := validateDefinition(def)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "module has 1 tasks")
		assert.Contains(t, err.Error(), `nonexistent next beat "Missing"`)
		assert.Contains(t, err.Error(), `awaits unknown event "door.opened"`)
	})
}

func TestLoad_File(t *testing.T) {
	_, err := Load("no-such-module")
	assert.ErrorContains(t, err, "neither built in")
}

func TestBuild_RunsSession(t *testing.T) {
	def, err := Load("module3")
	require.NoError(t, err)

	tl := logging.NewTestLogger()
	host := engine.NewRecorder()
	def.World.Apply(host)
	ledger := assessment.NewLedger(LedgerConfig(def, 0), tl.Logger)
	plan, err := Build(def, ledger, host, Options{SkipPenalty: 15, Logger: tl.Logger})
	require.NoError(t, err)
	plan.Beats = nil

	s := session.New(session.DefaultConfig(), host, ledger, plan, tl.Logger)
	s.Start()

	s.OnInteraction(mechanics.Interaction{Kind: mechanics.KindFire, Position: mgl64.Vec3{3, 1, 0}})
	s.Tick(100*time.Millisecond, nil)
	s.OnInteraction(mechanics.Interaction{Kind: mechanics.KindFire, Position: mgl64.Vec3{0, 1, 0}})
	s.Tick(100*time.Millisecond, nil)
	assert.Equal(t, 1, s.Controller().CurrentIndex())

	a, ok := ledger.Assessment("Task1")
	require.True(t, ok)
	assert.Equal(t, 90, a.CurrentScore)

	s.OnSkipRequested("Collect Samples")
	s.Tick(100*time.Millisecond, nil)
	a, _ = ledger.Assessment("Task2")
	assert.Equal(t, 85, a.CurrentScore, "scenario skip penalty applies")
}

func TestWorldApply(t *testing.T) {
	def, err := Load("module1")
	require.NoError(t, err)

	host := engine.NewRecorder()
	def.World.Apply(host)
	assert.Len(t, host.Obstacles, 2)
	assert.Equal(t, 6*time.Second, host.Lines["intro"])
}

func TestSkipCleansUpBuiltinMechanics(t *testing.T) {
	def, err := Load("module2")
	require.NoError(t, err)
	assert.Equal(t, []string{"powder.jar"}, def.Tasks[1].Units[0].Objects)

	host := engine.NewRecorder()
	s, err := Assemble(def, host, session.DefaultConfig(), Options{Logger: logging.NewTestLogger().Logger})
	require.NoError(t, err)
	s.Start()

	aimed := map[string]mechanics.Pose{
		"flashlight": {Position: mgl64.Vec3{0, 1, 0}, Forward: mgl64.Vec3{0, 0, -1}},
		"door.print": {Position: mgl64.Vec3{0, 1, -2}},
	}
	s.Tick(100*time.Millisecond, aimed)
	require.Contains(t, host.Calls(), "active door.print.glow true")

	s.OnSkipRequested("Locate the Fingerprint")
	s.Tick(100*time.Millisecond, nil)
	assert.Equal(t, 1, s.Controller().CurrentIndex())
	assert.True(t, host.Inactive("door.print.glow"), "skipped search leaves no glow behind")

	s.OnSkipRequested("Develop the Print")
	s.Tick(100*time.Millisecond, nil)
	assert.True(t, host.Inactive("powder.jar"))
	assert.False(t, host.Inactive("tape"), "later units keep their objects")
}
