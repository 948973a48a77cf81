package server

import (
	"net/http"
	"strconv"

	"mindhaven/internal/config"
)

// Game is one entry of the game directory.
type Game struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Endpoint string `json:"endpoint"`
}

type gamesResponse struct {
	Games map[string]Game `json:"games"`
}

// Directory builds the game directory from configured endpoints.
func Directory(games config.Games) map[string]Game {
	entries := []Game{
		{ID: 1, Title: "Chess", Endpoint: games.Chess},
		{ID: 2, Title: "Sudoku", Endpoint: games.Sudoku},
		{ID: 3, Title: "Sliding Puzzle", Endpoint: games.SlidingPuzzle},
		{ID: 4, Title: "Memory Card", Endpoint: games.MemoryCard},
		{ID: 5, Title: "Minesweeper", Endpoint: games.Minesweeper},
		{ID: 6, Title: "Tic Tac Toe", Endpoint: games.TicTacToe},
	}
	directory := make(map[string]Game, len(entries))
	for _, entry := range entries {
		directory[strconv.Itoa(entry.ID)] = entry
	}
	return directory
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.loadGames()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "load games", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, gamesResponse{Games: Directory(games)})
}
