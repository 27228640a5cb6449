// Package log defines standard attribute keys for encoding operations.
//
// Using these keys keeps fit/transform logs consistent across the encoders so
// that a pipeline's logs can be filtered by model, operation or data shape.
// Keys follow a hierarchical naming convention (e.g. "model.name", "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "TargetEncoder", "OrdinalEncoder"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific estimator instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "fit_transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the estimator lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// DataTypeKey specifies the type of data being processed.
	// Examples: "categorical", "numeric", "mixed"
	DataTypeKey = "data.type"
)

// Encoder specifics
const (
	// ColumnsKey lists the columns an encoder operates on.
	ColumnsKey = "encoder.columns"

	// CategoriesKey records the number of distinct categories seen for a column.
	CategoriesKey = "encoder.categories"

	// FoldsKey records the number of folds used for out-of-fold estimation.
	FoldsKey = "encoder.folds"

	// FoldKey records the index of the fold being processed.
	FoldKey = "encoder.fold"

	// PriorKey records the global target mean used as smoothing prior.
	PriorKey = "encoder.prior"

	// DroppedColumnsKey lists output columns removed as invariant.
	DroppedColumnsKey = "encoder.dropped_columns"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorUnknownCategory   = "UNKNOWN_CATEGORY"
	ErrorMissingValue      = "MISSING_VALUE"
)
