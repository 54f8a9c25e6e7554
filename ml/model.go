package ml

// Regressor is a trained model producing a scalar estimate from a feature
// vector laid out by FeatureEncoder.
type Regressor interface {
	Predict(features []float64) (float64, error)
	NumFeatures() int
}

// ModelTypeLinearRegression is the only model type the loader understands.
const ModelTypeLinearRegression = "linear_regression"
