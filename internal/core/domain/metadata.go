package domain

// DatasetMetadata is the flat summary folded out of an EML document and used
// for search indexing. Absent source paths leave fields at their zero value.
type DatasetMetadata struct {
	DatasetTitle                   string               `json:"datasetTitle,omitempty"`
	DatasetID                      string               `json:"datasetId,omitempty"`
	SourceSystem                   string               `json:"sourceSystem,omitempty"`
	PublishDate                    string               `json:"publishDate,omitempty"`
	Keywords                       []string             `json:"keywords,omitempty"`
	TaxonomicCoverage              []Taxon              `json:"taxonomicCoverage,omitempty"`
	Project                        []Project            `json:"project"`
	ProjectIUCNConservationActions []ConservationAction `json:"projectIUCNConservationActions,omitempty"`
	// FundingPairedByPosition is set when at least one funding entry could only
	// be attached to a project by array index.
	FundingPairedByPosition bool `json:"fundingPairedByPosition,omitempty"`
	// Issues lists funding blocks that were dropped because their "describes"
	// identifier matches no project.
	Issues []Issue `json:"issues,omitempty"`
}

// Project is a project or related project described by the dataset.
type Project struct {
	ProjectID         string    `json:"projectId,omitempty"`
	ProjectTitle      string    `json:"projectTitle,omitempty"`
	ProjectType       string    `json:"projectType"`
	Organization      string    `json:"organization,omitempty"`
	Abstract          string    `json:"abstract,omitempty"`
	Objectives        string    `json:"objectives,omitempty"`
	TaxonomicCoverage []Taxon   `json:"taxonomicCoverage,omitempty"`
	Funding           []Funding `json:"funding"`
}

// Funding is one funding source attached to a project.
type Funding struct {
	AgencyName               string `json:"agencyName,omitempty"`
	AgencyProjectID          string `json:"agencyProjectId,omitempty"`
	InvestmentActionCategory string `json:"investmentActionCategory,omitempty"`
	FundingAmount            string `json:"fundingAmount,omitempty"`
	StartDate                string `json:"startDate,omitempty"`
	EndDate                  string `json:"endDate,omitempty"`
}

// Taxon is one taxonomic classification entry.
type Taxon struct {
	TaxonID        string `json:"taxonId,omitempty"`
	TaxonRankName  string `json:"taxonRankName,omitempty"`
	TaxonRankValue string `json:"taxonRankValue,omitempty"`
	CommonName     string `json:"commonName,omitempty"`
}

// ConservationAction is an IUCN conservation action classification.
type ConservationAction struct {
	Level1 string `json:"level1,omitempty"`
	Level2 string `json:"level2,omitempty"`
	Level3 string `json:"level3,omitempty"`
}

// ProjectTypes
const (
	ProjectTypeProject        = "project"
	ProjectTypeRelatedProject = "relatedProject"
)
