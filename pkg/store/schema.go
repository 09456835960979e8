// Package store provides RDF triple storage, SKOS vocabulary definitions and
// serializers for taxonomy graphs.
package store

// Namespace URIs used by taxonomy graphs.
const (
	// NamespaceRDF is the standard RDF namespace.
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// NamespaceRDFS is the RDF Schema namespace.
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"

	// NamespaceXSD is the XML Schema namespace for datatypes.
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"

	// NamespaceSKOS is the Simple Knowledge Organization System namespace.
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"

	// NamespaceDCTerms is the Dublin Core terms namespace.
	NamespaceDCTerms = "http://purl.org/dc/terms/"

	// NamespaceOWL is the Web Ontology Language namespace.
	NamespaceOWL = "http://www.w3.org/2002/07/owl#"

	// NamespaceEuroVoc is the EU vocabularies ontology namespace (euvoc:status).
	NamespaceEuroVoc = "http://publications.europa.eu/ontology/euvoc#"

	// NamespaceConceptStatus is the EU authority table of concept statuses.
	NamespaceConceptStatus = "http://publications.europa.eu/resource/authority/concept-status/"
)

// RDF and RDFS predicates.
const (
	RDFType   = NamespaceRDF + "type"
	RDFSLabel = NamespaceRDFS + "label"
)

// SKOS classes.
const (
	// SKOSConcept is the class of taxonomy concepts, top concepts included.
	SKOSConcept = NamespaceSKOS + "Concept"

	// SKOSConceptScheme is the class of the organizing root node.
	SKOSConceptScheme = NamespaceSKOS + "ConceptScheme"
)

// SKOS properties.
const (
	SKOSPrefLabel     = NamespaceSKOS + "prefLabel"
	SKOSAltLabel      = NamespaceSKOS + "altLabel"
	SKOSDefinition    = NamespaceSKOS + "definition"
	SKOSBroader       = NamespaceSKOS + "broader"
	SKOSNarrower      = NamespaceSKOS + "narrower"
	SKOSInScheme      = NamespaceSKOS + "inScheme"
	SKOSTopConceptOf  = NamespaceSKOS + "topConceptOf"
	SKOSHasTopConcept = NamespaceSKOS + "hasTopConcept"
)

// Dublin Core, OWL and EuroVoc properties.
const (
	DCTermsIdentifier = NamespaceDCTerms + "identifier"
	DCTermsCreated    = NamespaceDCTerms + "created"
	DCTermsTitle      = NamespaceDCTerms + "title"

	OWLVersionInfo = NamespaceOWL + "versionInfo"

	EuroVocStatus = NamespaceEuroVoc + "status"
)

// Datatypes.
const (
	XSDDate   = NamespaceXSD + "date"
	XSDString = NamespaceXSD + "string"
)

// hierarchyPredicates link two concept nodes rather than a node and a literal.
var hierarchyPredicates = map[string]bool{
	SKOSBroader:       true,
	SKOSNarrower:      true,
	SKOSInScheme:      true,
	SKOSTopConceptOf:  true,
	SKOSHasTopConcept: true,
}

// IsHierarchyPredicate reports whether a predicate relates two taxonomy nodes.
func IsHierarchyPredicate(predicate string) bool {
	return hierarchyPredicates[predicate]
}

// StatusIRI returns the concept-status authority IRI for a status code such as "CURRENT".
func StatusIRI(status string) string {
	return NamespaceConceptStatus + status
}
