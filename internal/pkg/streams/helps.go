package streams

// All drains the stream and returns the collected values together with
// the stream's terminal error, if any.
func All[T any](stream Stream[T]) ([]T, error) {
	var result []T

	for stream.Next() {
		result = append(result, stream.Current())
	}

	return result, stream.Err()
}
