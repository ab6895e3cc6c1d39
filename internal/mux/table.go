package mux

import (
	"net/http"

	"github.com/gorilla/mux"
	"pokertable-server/pkg/table"
)

type getTableResponse struct {
	Tables []*table.Summary `json:"tables"`
	Total  int              `json:"total"`
}

func (m *Mux) getTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := parsePaginationOptions(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		tables := m.pitBoss.Registry().Tables()
		res := getTableResponse{
			Tables: make([]*table.Summary, 0, limit),
			Total:  len(tables),
		}

		for i := offset; i < len(tables) && i < offset+limit; i++ {
			res.Tables = append(res.Tables, tables[i].Summary())
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func (m *Mux) getTableID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tbl, ok := m.pitBoss.Registry().Get(mux.Vars(r)["id"])
		if !ok {
			writeJSONError(w, http.StatusNotFound, nil)
			return
		}

		writeJSON(w, http.StatusOK, tbl.PublicSnapshot())
	}
}
