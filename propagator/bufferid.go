package propagator

// BufferId addresses a Buffer by index into a Pipeline's arena rather than
// through a shared pointer: the arena owns every buffer, and back-references
// between buffers are just indices into it. The zero value is a valid id;
// NoBuffer marks an absent back-reference.
type BufferId int

// NoBuffer marks an absent back-reference (e.g. a buffer at the start of
// time has no M2 history).
const NoBuffer BufferId = -1
