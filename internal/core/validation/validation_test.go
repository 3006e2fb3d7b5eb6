package validation_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/validation"
)

func TestIsValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.c":                  true,
		"pm@constructtrack.io":   true,
		"first.last@sub.site.eu": true,
		"no-at-sign":             false,
		"a@b":                    false,
		"":                       false,
		"a b@c.d":                false,
		"a@@b.c":                 false,
		"@b.c":                   false,
	}
	for in, want := range cases {
		assert.Equalf(t, want, validation.IsValidEmail(in), "IsValidEmail(%q)", in)
	}
}

func TestIsValidLatitude(t *testing.T) {
	for x := -90.0; x <= 90; x += 7.5 {
		assert.Truef(t, validation.IsValidLatitude(x), "lat %v", x)
	}
	for _, x := range []float64{-90.0001, 90.0001, -180, 180, math.Inf(1), math.Inf(-1), math.NaN()} {
		assert.Falsef(t, validation.IsValidLatitude(x), "lat %v", x)
	}
}

func TestIsValidLongitude(t *testing.T) {
	for x := -180.0; x <= 180; x += 15 {
		assert.Truef(t, validation.IsValidLongitude(x), "lon %v", x)
	}
	for _, x := range []float64{-180.0001, 180.0001, 360, math.NaN()} {
		assert.Falsef(t, validation.IsValidLongitude(x), "lon %v", x)
	}
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, validation.IsValidCoordinates(domain.Coordinates{Latitude: 37.7749, Longitude: -122.4194}))
	assert.False(t, validation.IsValidCoordinates(domain.Coordinates{Latitude: 91, Longitude: 0}))
	assert.False(t, validation.IsValidCoordinates(domain.Coordinates{Latitude: 0, Longitude: -181}))
}

func TestIsValidBudget(t *testing.T) {
	for _, x := range []float64{0.01, 1, 250000, math.MaxFloat64} {
		assert.Truef(t, validation.IsValidBudget(x), "budget %v", x)
	}
	for _, x := range []float64{0, -0.01, -1000, math.NaN()} {
		assert.Falsef(t, validation.IsValidBudget(x), "budget %v", x)
	}
}

func TestValidator_Struct(t *testing.T) {
	v := validation.New()

	ok := domain.NewProject{
		Name:         "Mission District trenching",
		Budget:       120000,
		ManagerEmail: "pm@constructtrack.io",
		Latitude:     37.7599,
		Longitude:    -122.4148,
	}
	require.NoError(t, v.Struct(ok))

	bad := domain.NewProject{
		Budget:       0,
		ManagerEmail: "nope",
		Latitude:     95,
		Longitude:    -122.4,
	}
	err := v.Struct(bad)
	require.Error(t, err)

	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))

	fields := map[string]string{}
	for _, e := range fe {
		fields[e.Field] = e.Rule
	}
	assert.Equal(t, "required", fields["name"])
	assert.Equal(t, "ct_budget", fields["budget"])
	assert.Equal(t, "ct_email", fields["manager_email"])
	assert.Equal(t, "ct_latitude", fields["latitude"])
	assert.NotContains(t, fields, "longitude")
}
