package birthday

// Character is a tracked name and birthday pair. URL points at the
// character's page on the upstream source and is carried opaquely for
// presentation.
type Character struct {
	Name     string
	URL      string
	Birthday Birthday
}
