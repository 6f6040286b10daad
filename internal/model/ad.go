package model

import (
    "time"

    "github.com/google/uuid"
)

// Ad is a classified listing.  Show is the visibility flag used for soft
// deletion.
type Ad struct {
    ID         uuid.UUID `json:"id"`
    Note       string    `json:"note"`
    Generosity *int      `json:"generosity,omitempty"`
    Images     []string  `json:"images,omitempty"`
    CityID     uuid.UUID `json:"cityID"`
    UserID     uuid.UUID `json:"userID"`
    Show       *bool     `json:"show,omitempty"`
}

type City struct {
    ID           uuid.UUID `json:"id,omitempty"`
    City         string    `json:"city"`
    DepartmentID uuid.UUID `json:"departmentID"`
}

type Offer struct {
    ID    uuid.UUID `json:"id"`
    Offer string    `json:"offer"`
    AdID  uuid.UUID `json:"adID"`
}

type Demand struct {
    ID     uuid.UUID `json:"id"`
    Demand string    `json:"demand"`
    AdID   uuid.UUID `json:"adID"`
}

// Heart is a like marker on an ad.
type Heart struct {
    ID             uuid.UUID  `json:"id"`
    HeartCreatedAt *time.Time `json:"heartCreatedAt,omitempty"`
    AdID           uuid.UUID  `json:"adID"`
    UserID         uuid.UUID  `json:"userID"`
}

// NewAd is the body of POST ads/create.
type NewAd struct {
    Note   string    `json:"note"`
    CityID uuid.UUID `json:"cityID"`
}

// DemandOfferData is the body of POST offers/create and demands/create.
type DemandOfferData struct {
    Strings []string  `json:"strings"`
    AdID    uuid.UUID `json:"adID"`
}

// AdUpdate is the body of PUT ads/{id}/update.
type AdUpdate struct {
    Note         string    `json:"note"`
    AdID         uuid.UUID `json:"adID"`
    Demands      []string  `json:"demands"`
    Offers       []string  `json:"offers"`
    City         string    `json:"city"`
    CityID       uuid.UUID `json:"cityID"`
    DepartmentID uuid.UUID `json:"departmentID"`
}

// AdObject is one entry of a department's ad list.
type AdObject struct {
    Note       string     `json:"note"`
    AdID       uuid.UUID  `json:"adID"`
    Demands    []Demand   `json:"demands"`
    Offers     []Offer    `json:"offers"`
    City       City       `json:"city"`
    Department Department `json:"department"`
}

type AdsOfPerimeterData struct {
    Ads                []AdObject `json:"ads"`
    SelectedDepartment Department `json:"selectedDepartment"`
}

// AdData is the public detail of an ad.
type AdData struct {
    Note       string     `json:"note"`
    AdID       uuid.UUID  `json:"adID"`
    Demands    []Demand   `json:"demands"`
    Offers     []Offer    `json:"offers"`
    Department Department `json:"department"`
    City       City       `json:"city"`
    Hearts     int        `json:"hearts"`
    Images     []string   `json:"images,omitempty"`
    CreatedAt  string     `json:"createdAt"`
    Generosity *string    `json:"generosity,omitempty"`
}

// AdOfUser is the signed-in user's own ad.
type AdOfUser struct {
    AdID       uuid.UUID   `json:"adID"`
    Note       string      `json:"note"`
    Images     []string    `json:"images,omitempty"`
    Demands    []Demand    `json:"demands"`
    Offers     []Offer     `json:"offers"`
    City       City        `json:"city"`
    Department *Department `json:"department,omitempty"`
    Hearts     int         `json:"hearts"`
    CreatedAt  string      `json:"createdAt"`
}

// AdWithUser is an ad with its owner, listed on the admin index.
type AdWithUser struct {
    Ad         Ad         `json:"ad"`
    User       User       `json:"user"`
    Demands    []Demand   `json:"demands"`
    Offers     []Offer    `json:"offers"`
    City       City       `json:"city"`
    Department Department `json:"department"`
    Hearts     int        `json:"hearts"`
    CreatedAt  string     `json:"createdAt"`
}

// ImageLink is one uploaded image of an ad.
type ImageLink struct {
    ImageLink string `json:"imageLink"`
    ImageName string `json:"imageName"`
}

// ImageData is the body of POST aws/image.  Image is base64 in JSON.
type ImageData struct {
    Image []byte    `json:"image"`
    AdID  uuid.UUID `json:"adID"`
}
