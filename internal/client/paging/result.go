package paging

// LoadType tells Mediator.Load which part of the window to load.
type LoadType int

const (
	// Refresh reloads the window from the first page.
	Refresh LoadType = iota
	// Prepend loads the page before the window.
	Prepend
	// Append loads the page after the window.
	Append
)

func (t LoadType) String() string {
	switch t {
	case Refresh:
		return "refresh"
	case Prepend:
		return "prepend"
	case Append:
		return "append"
	}
	return "unknown"
}

// Order is the sort direction of a paged list.
type Order int

const (
	Descending Order = iota
	Ascending
)

// Result is the outcome of one Load. Err is nil on success.
type Result struct {
	EndOfPaginationReached bool
	Err                    error
}

func Success(endOfPaginationReached bool) Result {
	return Result{EndOfPaginationReached: endOfPaginationReached}
}

func Error(err error) Result {
	return Result{Err: err}
}

func (r Result) IsError() bool {
	return r.Err != nil
}

// State describes the loaded window in zero-based pages: FirstPage is the
// page at the top of the window and Pages is how many pages it holds.
type State struct {
	FirstPage int
	Pages     int
	PageSize  int
}

type InitializeAction int

const (
	LaunchInitialRefresh InitializeAction = iota
	SkipInitialRefresh
)
