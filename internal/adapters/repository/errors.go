package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("store not on leaderboard")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidScore  = errors.New("invalid heat score")
	ErrStoreNotFound = errors.New("store not found")
	ErrGameNotFound  = errors.New("game not found")
	ErrWinNotFound   = errors.New("win record not found")
	ErrDuplicateWin  = errors.New("win record already exists")
)
