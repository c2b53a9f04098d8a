package transform

import (
	"fmt"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// ExtractMetadata folds an EML document into the flat summary used for search
// indexing. It is total: any JSON value, including nil, yields a result.
func ExtractMetadata(doc any) domain.DatasetMetadata {
	root, dataset := emlDataset(doc)

	md := domain.DatasetMetadata{
		DatasetTitle:      field(dataset, "title"),
		DatasetID:         field(root, "@_packageId", "packageId"),
		SourceSystem:      field(root, "@_system", "system"),
		PublishDate:       field(dataset, "pubDate"),
		Keywords:          keywords(dataset),
		TaxonomicCoverage: taxa(coverageNodes(dataset)),
		Project:           []domain.Project{},
	}
	if md.DatasetID == "" {
		md.DatasetID = field(dataset, "@_id", "alternateIdentifier")
	}

	var nodes []any
	for _, p := range projectScopes(dataset) {
		md.Project = append(md.Project, project(p.node, p.kind))
		nodes = append(nodes, p.node)
	}

	additional := all(pathAdditional, root)
	if len(additional) == 0 {
		additional = all(pathAdditional, dataset)
	}
	md.FundingPairedByPosition, md.Issues = attachFunding(md.Project, additional)

	for _, a := range additional {
		for _, action := range all(pathIUCNBlock, first(pathMetadata, a)) {
			md.ProjectIUCNConservationActions = append(md.ProjectIUCNConservationActions, domain.ConservationAction{
				Level1: field(action, "IUCNConservationActionLevel1Classification"),
				Level2: field(action, "IUCNConservationActionLevel2SubclassClassification"),
				Level3: field(action, "IUCNConservationActionLevel3SubclassClassification"),
			})
		}
	}
	return md
}

type scope struct {
	node any
	kind string
}

// projectScopes lists every project under the dataset followed by its related
// projects, in document order.
func projectScopes(dataset any) []scope {
	var out []scope
	for _, p := range all(pathProject, dataset) {
		if asMap(p) == nil {
			continue
		}
		out = append(out, scope{node: p, kind: domain.ProjectTypeProject})
		for _, r := range all(pathRelated, p) {
			if asMap(r) != nil {
				out = append(out, scope{node: r, kind: domain.ProjectTypeRelatedProject})
			}
		}
	}
	for _, r := range all(pathRelated, dataset) {
		if asMap(r) != nil {
			out = append(out, scope{node: r, kind: domain.ProjectTypeRelatedProject})
		}
	}
	return out
}

func project(node any, kind string) domain.Project {
	p := domain.Project{
		ProjectID:         field(node, "@_id", "id"),
		ProjectTitle:      field(node, "title"),
		ProjectType:       kind,
		TaxonomicCoverage: taxa(coverageNodes(node)),
		Funding:           []domain.Funding{},
	}
	for _, person := range all(pathPersonnel, node) {
		if org := field(person, "organizationName"); org != "" {
			p.Organization = org
			break
		}
	}
	p.Abstract, p.Objectives = abstract(first(pathAbstract, node))
	for _, f := range all(pathFundingSource, first(pathFunding, node)) {
		p.Funding = append(p.Funding, funding(f))
	}
	return p
}

// abstract splits an abstract into its body and the "Objectives" section.
func abstract(node any) (body, objectives string) {
	sections := all(pathSection, node)
	if len(sections) == 0 {
		return text(node), ""
	}
	var rest []any
	for _, s := range sections {
		if field(s, "title") == "Objectives" {
			objectives = field(s, "para")
			continue
		}
		rest = append(rest, asMap(s)["para"])
	}
	return text(rest), objectives
}

func funding(node any) domain.Funding {
	return domain.Funding{
		AgencyName:               field(node, "agencyName"),
		AgencyProjectID:          field(node, "agencyProjectId", "agencyProjectID"),
		InvestmentActionCategory: field(node, "investmentActionCategory"),
		FundingAmount:            field(node, "fundingAmount"),
		StartDate:                field(node, "fundingStartDate", "startDate"),
		EndDate:                  field(node, "fundingEndDate", "endDate"),
	}
}

// attachFunding distributes additionalMetadata funding blocks over projects.
// A block whose "describes" names a project goes to that project. A block
// naming an unknown identifier is dropped and reported. Only blocks without
// any identifier are paired by position; paired reports whether that happened.
func attachFunding(projects []domain.Project, additional []any) (paired bool, issues []domain.Issue) {
	byID := make(map[string]int, len(projects))
	for i, p := range projects {
		if p.ProjectID != "" {
			byID[p.ProjectID] = i
		}
	}

	positional := 0
	for i, a := range additional {
		block := first(pathFundingBlock, first(pathMetadata, a))
		if block == nil {
			continue
		}
		sources := all(pathFundingSource, block)

		target := -1
		if describes := field(a, "describes"); describes != "" {
			idx, ok := byID[describes]
			if !ok {
				issues = append(issues, domain.Issue{
					Transform: domain.TransformMetadata,
					Feature:   fmt.Sprintf("additionalMetadata[%d]", i),
					Reason:    fmt.Sprintf("funding describes unknown project %q", describes),
				})
				continue
			}
			target = idx
		} else {
			if positional < len(projects) {
				target = positional
				paired = true
			}
			positional++
		}
		if target < 0 {
			continue
		}
		for _, f := range sources {
			projects[target].Funding = append(projects[target].Funding, funding(f))
		}
	}
	return paired, issues
}

func keywords(dataset any) []string {
	var out []string
	for _, set := range all(pathKeywordSet, dataset) {
		for _, k := range all(pathKeyword, set) {
			if s := text(k); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func coverageNodes(node any) []any {
	out := all(pathStudyCoverage, node)
	return append(out, all(pathCoverage, node)...)
}

// taxa flattens nested taxonomicClassification trees under each coverage.
func taxa(coverages []any) []domain.Taxon {
	var out []domain.Taxon
	var walk func(node any)
	walk = func(node any) {
		for _, c := range all(pathTaxClass, node) {
			if asMap(c) == nil {
				continue
			}
			t := domain.Taxon{
				TaxonID:        field(c, "taxonId", "taxonID"),
				TaxonRankName:  field(c, "taxonRankName"),
				TaxonRankValue: field(c, "taxonRankValue"),
				CommonName:     field(c, "commonName"),
			}
			if t != (domain.Taxon{}) {
				out = append(out, t)
			}
			walk(c)
		}
	}
	for _, cov := range coverages {
		for _, tc := range all(pathTaxCoverage, cov) {
			walk(tc)
		}
	}
	return out
}
