package tracking

import "sync"

// MouseState holds the last pointer position and the last click position.
// The zero value is ready to use and reports (0, 0) for both.
//
// Every method holds the mutex for its whole body and releases it with
// defer, so a panicking caller cannot leave it locked and readers never see
// a half-written pair.
type MouseState struct {
	mu        sync.Mutex
	lastMove  PointerSample
	lastClick PointerSample
}

func (s *MouseState) UpdateMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMove = PointerSample{X: x, Y: y}
}

func (s *MouseState) UpdateClick(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastClick = PointerSample{X: x, Y: y}
}

func (s *MouseState) LastMove() PointerSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMove
}

func (s *MouseState) LastClick() PointerSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClick
}
