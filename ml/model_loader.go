package ml

import (
	"fmt"
)

func LoadModel(modelType, path string) (Regressor, error) {
	switch modelType {
	case ModelTypeLinearRegression, "":
		model := &LinearRegression{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
