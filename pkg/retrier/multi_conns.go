package retrier

// MultiConnects opens count connections with connFunc, retrying each one per
// retrierOpts when it is not nil. It fails on the first connection that cannot
// be opened and closes nothing it already opened.
//
//	conns, err := MultiConnects(2, dialRabbit, &Opts{Count: 10, Interval: 5})
func MultiConnects[T any](count uint8, connFunc func() (T, error), retrierOpts *Opts) ([]T, error) {
	conns := make([]T, count)

	var err error

	for i := range conns {
		if retrierOpts != nil {
			conns[i], err = Connect(uint8(retrierOpts.Count), retrierOpts.Interval, connFunc)
		} else {
			conns[i], err = connFunc()
		}

		if err != nil {
			return nil, err
		}
	}

	return conns, nil
}
