package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalFactsheet() *Factsheet {
	return &Factsheet{
		TypeSpecification: TypeSpecification{
			SeriesName:        "tugger-x",
			AGVKinematic:      KinematicDiff,
			AGVClass:          ClassTugger,
			MaxLoadMass:       500,
			LocalizationTypes: []LocalizationType{LocalizationNatural},
			NavigationTypes:   []NavigationType{NavigationAutonomous},
		},
		PhysicalParameters: PhysicalParameters{
			SpeedMax: 1.5, AccelerationMax: 0.5, DecelerationMax: 0.5,
			HeightMax: 1.8, Width: 0.8, Length: 1.2,
		},
	}
}

func TestFactsheet_Validate(t *testing.T) {
	fs := minimalFactsheet()
	require.NoError(t, fs.Validate())

	noSeries := minimalFactsheet()
	noSeries.TypeSpecification.SeriesName = ""
	assert.Error(t, noSeries.Validate())

	badAction := minimalFactsheet()
	badAction.ProtocolFeatures.AGVActions = []AGVAction{
		{ActionType: "pick"},
	}
	err := badAction.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scopes")
}

func TestFactsheet_VisualizationInterval(t *testing.T) {
	fs := minimalFactsheet()
	assert.Equal(t, 1.0, fs.VisualizationInterval(1.0), "fallback when undeclared")

	declared := 0.1
	fs.ProtocolLimits.Timing.VisualizationInterval = &declared
	assert.Equal(t, 0.1, fs.VisualizationInterval(1.0))
}
