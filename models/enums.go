package models

// ProcessType is the kind of intellectual-property process tracked by the system.
type ProcessType string

const (
	ProcessTypeBrand    ProcessType = "BRAND"
	ProcessTypePatent   ProcessType = "PATENT"
	ProcessTypeDesign   ProcessType = "DESIGN"
	ProcessTypeSoftware ProcessType = "SOFTWARE"
)

func (t ProcessType) IsValid() bool {
	switch t {
	case ProcessTypeBrand, ProcessTypePatent, ProcessTypeDesign, ProcessTypeSoftware:
		return true
	}
	return false
}

// AllProcessTypes lists every tracked category.
var AllProcessTypes = []ProcessType{
	ProcessTypeBrand,
	ProcessTypePatent,
	ProcessTypeDesign,
	ProcessTypeSoftware,
}

// ProcessSituation is the fine-grained legal situation of a process.
type ProcessSituation string

const (
	ProcessSituationFiled            ProcessSituation = "FILED"
	ProcessSituationPublished        ProcessSituation = "PUBLISHED"
	ProcessSituationUnderExamination ProcessSituation = "UNDER_EXAMINATION"
	ProcessSituationOpposed          ProcessSituation = "OPPOSED"
	ProcessSituationGranted          ProcessSituation = "GRANTED"
	ProcessSituationExpired          ProcessSituation = "EXPIRED"
	ProcessSituationLapsed           ProcessSituation = "LAPSED"
	ProcessSituationRenewed          ProcessSituation = "RENEWED"
)

// AlertType categorizes notifications delivered to users.
type AlertType string

const (
	AlertTypeStatusChange   AlertType = "mudanca_status"
	AlertTypePublication    AlertType = "publicacao"
	AlertTypeDeadline       AlertType = "prazo"
	AlertTypeSimilarProcess AlertType = "processo_similar"
	AlertTypeRenewalDue     AlertType = "renovacao_vencimento"
)

func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeStatusChange, AlertTypePublication, AlertTypeDeadline,
		AlertTypeSimilarProcess, AlertTypeRenewalDue:
		return true
	}
	return false
}

// MembershipRole is a user's role within a company.
type MembershipRole string

const (
	MembershipRoleMember MembershipRole = "member"
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleOwner  MembershipRole = "owner"
	MembershipRoleViewer MembershipRole = "viewer"
)

func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleMember, MembershipRoleAdmin, MembershipRoleOwner, MembershipRoleViewer:
		return true
	}
	return false
}

// CanManage reports whether the role may administer company members.
func (r MembershipRole) CanManage() bool {
	return r == MembershipRoleAdmin || r == MembershipRoleOwner
}
