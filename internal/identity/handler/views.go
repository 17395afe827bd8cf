package handler

import (
	"time"

	"castingbase/internal/identity/models"
)

// baseView is the client-facing shape of the shared identity fields. Password
// hashes and registration tokens never appear here.
type baseView struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Position    string `json:"position"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	Photo       string `json:"photo,omitempty"`
}

type actorView struct {
	HeightCM    float64 `json:"height_cm"`
	WeightKG    float64 `json:"weight_kg"`
	Bio         string  `json:"bio"`
	DateOfBirth string  `json:"date_of_birth"`
}

type crewView struct {
	Bio         string `json:"bio,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

type identityResponse struct {
	baseView
	UserType     string     `json:"user_type"`
	Step         int        `json:"step"`
	ProductionID string     `json:"production_id,omitempty"`
	Actor        *actorView `json:"actor,omitempty"`
	Crew         *crewView  `json:"crew,omitempty"`
}

func base(i *models.Identity) baseView {
	return baseView{
		ID:          i.ID.String(),
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		Username:    i.Username,
		Email:       i.Email,
		PhoneNumber: i.PhoneNumber,
		Position:    i.Position,
		Gender:      i.Gender,
		Nationality: i.Nationality,
		Photo:       i.ProfilePhoto,
	}
}

// partialView echoes the half-done registration so the client can resume it.
func partialView(i *models.Identity) identityResponse {
	return identityResponse{
		baseView: base(i),
		UserType: string(i.Variant),
		Step:     int(i.Step),
	}
}

func identityView(i *models.Identity) identityResponse {
	resp := identityResponse{
		baseView: base(i),
		UserType: string(i.Variant),
		Step:     int(i.Step),
	}
	if i.ProductionID != nil {
		resp.ProductionID = i.ProductionID.String()
	}
	if i.Actor != nil {
		resp.Actor = &actorView{
			HeightCM:    i.Actor.HeightCM,
			WeightKG:    i.Actor.WeightKG,
			Bio:         i.Actor.Bio,
			DateOfBirth: i.Actor.DateOfBirth.Format(time.DateOnly),
		}
	}
	if i.Crew != nil {
		cv := &crewView{Bio: i.Crew.Bio}
		if i.Crew.DateOfBirth != nil {
			cv.DateOfBirth = i.Crew.DateOfBirth.Format(time.DateOnly)
		}
		resp.Crew = cv
	}
	return resp
}
