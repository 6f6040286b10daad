package model

// Form payloads posted by the rendered pages.  Every state-changing form
// carries the CSRF token issued when it was rendered.  Ids are kept as
// strings and checked with the uuid rule before use.

type CSRFForm struct {
    CSRFToken string `form:"csrfToken"`
}

type LoginForm struct {
    CSRFToken string `form:"csrfToken"`
    Username  string `form:"username" validate:"required"`
    Password  string `form:"password" validate:"required"`
}

type RegisterForm struct {
    CSRFToken       string `form:"csrfToken"`
    Firstname       string `form:"firstname" validate:"required,alphanum,min=1,max=35"`
    Lastname        string `form:"lastname" validate:"required,alphanum,min=1,max=35"`
    Email           string `form:"email" validate:"required,ascii,min=5,max=60"`
    Password        string `form:"password" validate:"required,min=8,max=30,strongpassword"`
    ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
    IAcceptTC       string `form:"iAcceptTC" validate:"required"`
}

type ProfileForm struct {
    CSRFToken string `form:"csrfToken"`
    Firstname string `form:"firstname" validate:"required,alphanum,min=1,max=35"`
    Lastname  string `form:"lastname" validate:"required,alphanum,min=1,max=35"`
    Email     string `form:"email" validate:"required,email,min=5,max=60"`
}

type PasswordForm struct {
    CSRFToken    string `form:"csrfToken"`
    OldPassword  string `form:"oldPassword" validate:"required,min=8,max=30"`
    NewPassword  string `form:"newPassword" validate:"required,min=8,max=30,strongpassword"`
    PasswordConf string `form:"passwordConf" validate:"eqfield=NewPassword"`
}

type CreateAdForm struct {
    CSRFToken    string   `form:"csrfToken"`
    Note         string   `form:"note" validate:"max=100,adtext"`
    Demands      []string `form:"demands"`
    Offers       []string `form:"offers"`
    City         string   `form:"city" validate:"required,min=1,max=35,adtext"`
    DepartmentID string   `form:"departmentID" validate:"required,uuid"`
}

type EditAdForm struct {
    CSRFToken    string   `form:"csrfToken"`
    Note         string   `form:"note" validate:"max=100,adtext"`
    AdID         string   `form:"adID" validate:"required,uuid"`
    Demands      []string `form:"demands"`
    Offers       []string `form:"offers"`
    City         string   `form:"city" validate:"required,min=1,max=35,adtext"`
    CityID       string   `form:"cityID" validate:"required,uuid"`
    DepartmentID string   `form:"departmentID" validate:"required,uuid"`
}

type SoftDeleteForm struct {
    CSRFToken string `form:"csrfToken"`
    AdID      string `form:"adID" validate:"required,uuid"`
}

type DeleteImageForm struct {
    CSRFToken string `form:"csrfToken"`
    ImageName string `form:"imageName" validate:"required"`
}

type CountryForm struct {
    CSRFToken string `form:"csrfToken"`
    Country   string `form:"country" validate:"required,min=1,max=60"`
}

type DepartmentForm struct {
    CSRFToken        string `form:"csrfToken"`
    DepartmentName   string `form:"departmentName" validate:"required,min=1,max=60"`
    DepartmentNumber int    `form:"departmentNumber" validate:"gt=0"`
    CountryID        string `form:"countryID" validate:"required,uuid"`
}

type PerimeterForm struct {
    CSRFToken     string   `form:"csrfToken"`
    DepartmentID  string   `form:"departmentID" validate:"required,uuid"`
    DepartmentIDs []string `form:"departmentIDs" validate:"required,min=1,dive,uuid"`
}
