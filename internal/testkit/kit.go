package testkit

import (
	"testing"

	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"

	"github.com/stretchr/testify/require"
)

// Fixture is a generated dataset together with its derived features.
type Fixture struct {
	Dataset  *dataset.Dataset
	Features feature.Set
}

// ClassificationFixture generates a classification dataset from config and
// derives its default features, failing the test on error.
func ClassificationFixture(t testing.TB, config GeneratorConfig) Fixture {
	t.Helper()
	ds, err := NewDatasetGenerator(config).Classification("synthetic-classification")
	require.NoError(t, err)
	return fixture(t, ds)
}

// RegressionFixture generates a regression dataset from config and derives
// its default features, failing the test on error.
func RegressionFixture(t testing.TB, config GeneratorConfig) Fixture {
	t.Helper()
	ds, err := NewDatasetGenerator(config).Regression("synthetic-regression")
	require.NoError(t, err)
	return fixture(t, ds)
}

func fixture(t testing.TB, ds *dataset.Dataset) Fixture {
	t.Helper()
	features, err := feature.Derive(ds)
	require.NoError(t, err)
	return Fixture{Dataset: ds, Features: features}
}
