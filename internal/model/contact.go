package model

import (
    "strings"

    "github.com/google/uuid"
)

const (
    facebookPrefix  = "https://www.facebook.com/"
    messengerPrefix = "https://www.facebook.com/messages/t"
)

type Contact struct {
    ID           uuid.UUID `json:"id"`
    AdLink       string    `json:"adLink"`
    FacebookLink string    `json:"facebookLink"`
    ContactName  string    `json:"contactName"`
}

// MessengerLink derives a Messenger conversation link from the contact's
// Facebook profile URL.  It returns "" when the profile URL is not a
// https://www.facebook.com/ link.
func (c Contact) MessengerLink() string {
    return MessengerLink(c.FacebookLink)
}

func MessengerLink(profileURL string) string {
    if !strings.HasPrefix(profileURL, facebookPrefix) {
        return ""
    }
    i := strings.LastIndex(profileURL, "/")
    return messengerPrefix + profileURL[i:]
}

// ContactData describes the contact state between the viewer and the
// owner of an ad.  Names and email are only present once both accepted.
type ContactData struct {
    ContactID     uuid.UUID `json:"contactID"`
    Firstname     *string   `json:"firstname,omitempty"`
    Lastname      *string   `json:"lastname,omitempty"`
    Email         *string   `json:"email,omitempty"`
    YouAccepted   bool      `json:"youAccepted"`
    OtherAccepted bool      `json:"otherAccepted"`
}

type ContactRequestFromData struct {
    UserID    uuid.UUID `json:"userID"`
    Firstname string    `json:"firstname"`
}

type ContactInfoData struct {
    Contact User `json:"contact"`
    Ads     []Ad `json:"ads"`
}
