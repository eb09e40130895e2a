package handlers

import (
	"net/http"
	"trip-window-service/internal/api/dto"
	"trip-window-service/internal/ports"
)

// DestinationHandler lists the catalogued destinations.
type DestinationHandler struct {
	Cities ports.CityLister
}

func (h *DestinationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	cities := h.Cities.Cities()
	res := dto.ListDestinationsResponse{
		Destinations: make([]dto.DestinationResponse, 0, len(cities)),
		Count:        len(cities),
	}
	for _, c := range cities {
		res.Destinations = append(res.Destinations, dto.DestinationResponse{
			Name:        c.Name,
			Country:     c.Country,
			Airport:     c.Airport,
			Coordinates: c.Coordinates,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
