package artifact

import "errors"

var (
	// ErrAbstractContract is returned for artifacts without creation bytecode,
	// i.e. abstract contracts and interfaces.
	ErrAbstractContract = errors.New("contract is abstract and can't be deployed")

	// ErrUnlinkedLibraries is returned when the creation bytecode contains library placeholders.
	ErrUnlinkedLibraries = errors.New("contract bytecode has unlinked libraries")

	// ErrConstructorArguments is returned when the constructor expects arguments.
	ErrConstructorArguments = errors.New("contract constructor requires arguments")
)
