package lruk

type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidFrame is returned (and wrapped with frame/replacer detail) when
// RecordAccess is called with a frame id outside the replacer's capacity.
const ErrInvalidFrame = constError("lruk: invalid frame id")

// ErrRemoveNonEvictable is returned by Remove when the target frame is
// tracked but currently marked non-evictable.
const ErrRemoveNonEvictable = constError("lruk: cannot remove a non-evictable frame")
