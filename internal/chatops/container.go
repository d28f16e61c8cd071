package chatops

// Container represents informations about a Docker container.
type Container struct {
	// Name is the container canonical name.
	Name string

	// Status is the human-readable status text reported by Docker
	// (e.g. "Up 2 hours", "Exited (0) 3 hours ago").
	Status string

	// Image is the name of the image the container was created from.
	Image string

	// Running indicates whether the container is currently running.
	Running bool
}

// StatsEntry holds a resource usage snapshot for one running container.
// The percentages are kept as the display strings reported by Docker
// (e.g. "0.07%") since they are only ever rendered, never computed with.
type StatsEntry struct {
	// Name is the container canonical name.
	Name string

	// CPU is the CPU usage percentage of the container.
	CPU string

	// Memory is the memory usage percentage of the container.
	Memory string
}

// Stats is an aggregate resource usage snapshot of the managed host.
// It is recomputed from scratch on every request and never cached.
type Stats struct {
	// Running is the number of currently running containers.
	Running int

	// Total is the total number of containers, including stopped ones.
	Total int

	// Entries holds one usage snapshot per running container.
	Entries []StatsEntry
}
