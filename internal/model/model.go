package model

import "time"

// DocumentType enumerates the supported document categories.
type DocumentType string

const (
	TypeInvoice         DocumentType = "invoice"
	TypeBillOfLading    DocumentType = "bill_of_lading"
	TypeTransferRequest DocumentType = "transfer_request"
	TypeContract        DocumentType = "contract"
	TypeCertificate     DocumentType = "certificate"
	TypeReport          DocumentType = "report"
	TypeOther           DocumentType = "other"
)

// DocumentTypes lists every valid document type.
var DocumentTypes = []DocumentType{
	TypeInvoice,
	TypeBillOfLading,
	TypeTransferRequest,
	TypeContract,
	TypeCertificate,
	TypeReport,
	TypeOther,
}

// ValidDocumentType reports whether t is one of the enumerated types.
func ValidDocumentType(t DocumentType) bool {
	for _, dt := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Department is a top-level organizational unit owning folders and documents.
// Name and Code are globally unique; the parent chain is acyclic.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Folder is a department-scoped container for documents. A folder's parent,
// when present, belongs to the same department as the folder itself.
type Folder struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DepartmentID string    `json:"department_id"`
	ParentID     *string   `json:"parent_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tag is a free label attachable to any document.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is an archived record. If both a department and a folder are set,
// the folder's department always equals the document's department; if only a
// folder is set, the department is derived from it.
type Document struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	DocumentType    DocumentType `json:"document_type"`
	DepartmentID    *string      `json:"department_id,omitempty"`
	FolderID        *string      `json:"folder_id,omitempty"`
	StoragePath     string       `json:"storage_path"`
	Description     string       `json:"description,omitempty"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	Date            *time.Time   `json:"date,omitempty"`
	Tags            []Tag        `json:"tags"`
	UploadedBy      string       `json:"uploaded_by"`
	ContentText     *string      `json:"content_text,omitempty"`
	OCRProcessed    bool         `json:"is_ocr_processed"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// FolderDepartmentID is the department of the assigned folder, populated
	// on hydrating reads so callers can detect folder/department disagreement
	// without an extra lookup. Not serialized.
	FolderDepartmentID *string `json:"-"`
}

// Consistent reports whether the folder/department pairing invariant holds
// for this document as hydrated.
func (d *Document) Consistent() bool {
	if d.FolderID == nil || d.FolderDepartmentID == nil {
		return true
	}
	return d.DepartmentID != nil && *d.DepartmentID == *d.FolderDepartmentID
}

// TagIDs returns the ids of the document's tags.
func (d *Document) TagIDs() []string {
	ids := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// TagNames returns the names of the document's tags.
func (d *Document) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		names = append(names, t.Name)
	}
	return names
}

// AuditAction enumerates the recorded audit actions.
type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditUpdate   AuditAction = "update"
	AuditDelete   AuditAction = "delete"
	AuditView     AuditAction = "view"
	AuditDownload AuditAction = "download"
	AuditShare    AuditAction = "share"
	AuditTag      AuditAction = "tag"
	AuditUntag    AuditAction = "untag"
	AuditMove     AuditAction = "move"
	AuditOCR      AuditAction = "ocr"
)

// AuditLog is an append-only record of an action on an entity. Rows are never
// mutated after creation.
type AuditLog struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     AuditAction    `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Identity is the resolved caller identity supplied by the auth collaborator.
type Identity struct {
	UserID     string
	Privileged bool
}
