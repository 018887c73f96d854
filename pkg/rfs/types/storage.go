package types

// Storage gives access to the directory where a replica keeps its files.
// Implementations must be safe for concurrent use, but the
// replica serializes every append through its own lock.
type Storage interface {
	// Prepare creates the directory if it does not exist yet.
	// Calling it more than once is fine.
	Prepare() error

	// Exists verify if the file exists.
	Exists(fileName string) bool

	// Read returns all lines of the file.
	Read(fileName string) ([]string, error)

	// Append adds the line at the end of the file, creating
	// the file if needed.
	Append(fileName, line string) error

	// Files lists the names of the files currently stored.
	Files() ([]string, error)
}
