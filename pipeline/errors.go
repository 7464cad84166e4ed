package pipeline

import "errors"

var (
	// ErrTopicRepositoryRequired is returned when a topic repository is not provided.
	ErrTopicRepositoryRequired = errors.New("topic repository required")

	// ErrRunRepositoryRequired is returned when a run repository is not provided.
	ErrRunRepositoryRequired = errors.New("run repository required")

	// ErrRegistryRequired is returned when a tool registry is not provided.
	ErrRegistryRequired = errors.New("tool registry required")

	// ErrNilTool is returned when registering a nil or unnamed tool.
	ErrNilTool = errors.New("tool must be non-nil and named")

	// ErrToolAlreadyRegistered is returned when registering a name twice.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrUnknownPipeline is returned when executing a pipeline name with no
	// definition.
	ErrUnknownPipeline = errors.New("unknown pipeline")
)
