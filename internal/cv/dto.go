package cv

import (
	"fmt"

	"github.com/cvpratico/cv-builder/internal/core/common/validation"
)

// PersonalData is the required identity block of the wizard payload.
type PersonalData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Summary  string `json:"summary"`
	Linkedin string `json:"linkedin,omitempty"`
	Address  string `json:"address,omitempty"`
}

type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

type Language struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// CreateCvDTO is the full wizard payload. Optional collections default to
// empty, never nil, so the persisted jsonb columns are always well-formed.
type CreateCvDTO struct {
	PersonalData PersonalData `json:"personalData"`
	Experiences  []Experience `json:"experiences"`
	Skills       Skills       `json:"skills"`
	Education    []Education  `json:"education"`
	Languages    []Language   `json:"languages"`
}

func (d *CreateCvDTO) ApplyDefaults() {
	if d.Experiences == nil {
		d.Experiences = []Experience{}
	}
	if d.Skills.Technical == nil {
		d.Skills.Technical = []string{}
	}
	if d.Skills.Soft == nil {
		d.Skills.Soft = []string{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Languages == nil {
		d.Languages = []Language{}
	}
}

func (d *CreateCvDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("personalData.name", d.PersonalData.Name).Required().MaxLength(200)
	validator.Field("personalData.email", d.PersonalData.Email).Required().Email()
	validator.Field("personalData.phone", d.PersonalData.Phone).Required().MaxLength(40)
	validator.Field("personalData.summary", d.PersonalData.Summary).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	for i, exp := range d.Experiences {
		v := validation.NewValidator()
		v.Field(field("experiences", i, "company"), exp.Company).Required()
		v.Field(field("experiences", i, "position"), exp.Position).Required()
		v.Field(field("experiences", i, "startDate"), exp.StartDate).Required()
		if appErr := v.Validate(); appErr != nil {
			return appErr
		}
	}

	for i, edu := range d.Education {
		v := validation.NewValidator()
		v.Field(field("education", i, "institution"), edu.Institution).Required()
		v.Field(field("education", i, "degree"), edu.Degree).Required()
		if appErr := v.Validate(); appErr != nil {
			return appErr
		}
	}

	for i, lang := range d.Languages {
		v := validation.NewValidator()
		v.Field(field("languages", i, "name"), lang.Name).Required()
		v.Field(field("languages", i, "level"), lang.Level).Required()
		if appErr := v.Validate(); appErr != nil {
			return appErr
		}
	}

	return nil
}

func field(list string, idx int, name string) string {
	return fmt.Sprintf("%s[%d].%s", list, idx, name)
}

// GeneratedDocuments is the output of the text generation step.
type GeneratedDocuments struct {
	LinkedinSummary string `json:"linkedinSummary"`
	CoverLetter     string `json:"coverLetter"`
}
