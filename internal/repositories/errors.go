package repositories

import "errors"

func asRepositoryError(err error) (RepositoryError, bool) {
	if err == nil {
		return nil, false
	}
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr, true
	}
	return nil, false
}
