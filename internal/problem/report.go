package problem

// Report накапливает ошибки пакетной операции.
type Report struct {
	errs []error
}

// Add добавляет ошибку. nil игнорируется.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	r.errs = append(r.errs, err)
}

// Len возвращает количество накопленных ошибок.
func (r *Report) Len() int {
	return len(r.errs)
}

// Err сворачивает накопленные ошибки:
//   - 0 ошибок — nil
//   - 1 ошибка — она же, без обёртки
//   - больше — Multiple в порядке добавления
func (r *Report) Err() error {
	switch len(r.errs) {
	case 0:
		return nil
	case 1:
		return r.errs[0]
	default:
		errs := make([]*Error, len(r.errs))
		for i, err := range r.errs {
			errs[i] = From(err)
		}
		return &Error{kind: KindMultiple, errs: errs}
	}
}

// Wrap возвращает value, если ошибок нет, иначе — свёрнутую ошибку.
func Wrap[T any](r *Report, value T) (T, error) {
	if err := r.Err(); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
