package classify

import "github.com/kalambet/smartfill/internal/field"

// rule maps label (or role) keywords to a field type. Rules are evaluated in
// table order and the first match wins.
type rule struct {
	field    field.Type
	keywords []string
	// exclude vetoes the rule when the label also contains one of these.
	exclude []string
	// onRole matches keywords against the role instead of the label.
	onRole bool
	// roleHas additionally requires one of these in the role.
	roleHas []string
	// content is the content type; resume context turns it into
	// "Resume Form" when resumeAware is set.
	content     string
	resumeAware bool
	style       string
	length      string
}

const (
	resumeForm      = "Resume Form"
	contactInfo     = "Contact Information"
	personalInfo    = "Personal Information"
	professionalInf = "Professional Information"
)

// passwordRules run before everything else and end classification.
var passwordRules = []rule{
	{field: field.Password, keywords: []string{"password", "passcode", "passwd", "secret", "密码"}, content: "Authentication"},
	{field: field.Password, onRole: true, keywords: []string{"password", "secure text"}, content: "Authentication"},
}

var contactRules = []rule{
	{field: field.EmailAddress, keywords: []string{"email", "e-mail", "mail address", "邮箱", "电子邮件", "联系邮箱"}, content: contactInfo, resumeAware: true},
	{field: field.PhoneNumber, keywords: []string{"phone", "mobile", "contact number", "telephone", "电话", "手机", "联系电话", "联系方式"}, content: contactInfo, resumeAware: true},
	{field: field.FirstName, keywords: []string{"first name", "given name", "forename", "名字"}, content: personalInfo, resumeAware: true},
	{field: field.LastName, keywords: []string{"last name", "surname", "family name", "姓氏"}, content: personalInfo, resumeAware: true},
	{
		field:    field.FullName,
		keywords: []string{"full name", "your name", "name", "姓名", "全名"},
		exclude:  []string{"company", "organization", "user", "file", "project", "school", "job", "domain", "display"},
		content:  personalInfo, resumeAware: true,
	},
	{field: field.StreetAddress, keywords: []string{"address", "street", "地址", "街道", "住址"}, exclude: []string{"web", "url"}, content: contactInfo, resumeAware: true},
	{field: field.City, keywords: []string{"city", "town", "城市"}, content: contactInfo, resumeAware: true},
	{field: field.StateProvince, keywords: []string{"state", "province", "region", "省份", "州"}, exclude: []string{"statement"}, content: contactInfo, resumeAware: true},
	{field: field.PostalCode, keywords: []string{"zip", "postal code", "postcode", "邮编", "邮政编码"}, content: contactInfo, resumeAware: true},
	{field: field.Country, keywords: []string{"country", "国家"}, content: contactInfo, resumeAware: true},
	{field: field.LinkedIn, keywords: []string{"linkedin", "领英"}, content: contactInfo, resumeAware: true},
	{field: field.Website, keywords: []string{"website", "personal site", "homepage", "portfolio url", "个人网站", "网站"}, content: contactInfo, resumeAware: true},
}

var resumeRules = []rule{
	{field: field.Education, keywords: []string{"education", "school", "university", "college", "degree", "学历", "教育", "学校", "大学"}, content: resumeForm},
	{field: field.WorkExperience, keywords: []string{"experience", "work history", "employment", "工作经历", "工作经验", "职业经历"}, content: resumeForm, length: "Long"},
	{field: field.Skills, keywords: []string{"skills", "abilities", "技能", "能力", "专长"}, content: resumeForm},
	{field: field.ProfileSummary, keywords: []string{"summary", "profile", "objective", "个人简介", "自我介绍", "求职目标"}, content: resumeForm},
	{field: field.Projects, keywords: []string{"projects", "portfolio", "项目经验", "作品集"}, content: resumeForm},
	{field: field.Achievements, keywords: []string{"achievements", "awards", "honors", "成就", "奖项", "荣誉"}, content: resumeForm},
	{field: field.Languages, keywords: []string{"languages", "语言", "外语"}, content: resumeForm, length: "Short"},
	{field: field.Certifications, keywords: []string{"certifications", "licenses", "证书", "认证", "执照"}, content: resumeForm},
	{field: field.References, keywords: []string{"references", "推荐人", "推荐信"}, content: resumeForm},
	{field: field.CoverLetterSnippet, keywords: []string{"cover letter", "motivation", "求职信"}, content: resumeForm, length: "Long"},
	{field: field.ShortBio, keywords: []string{"bio", "about me", "about yourself", "tell us about"}, content: resumeForm},
}

var genericRules = []rule{
	{field: field.SearchQuery, keywords: []string{"search", "find", "搜索", "查找"}, content: "Search"},
	{field: field.EmailSubject, keywords: []string{"subject", "主题"}, content: "Email Composition", length: "Short"},
	{field: field.CompanyName, keywords: []string{"company", "organization", "employer", "公司", "组织"}, content: professionalInf, resumeAware: true},
	{field: field.JobTitle, keywords: []string{"job title", "position", "role", "职位", "职称", "角色"}, content: professionalInf, resumeAware: true},
	{field: field.MessageBody, keywords: []string{"comment", "message", "body", "评论", "留言", "正文"}, roleHas: []string{"text area", "textarea"}, content: "Message Composition"},
}

var roleRules = []rule{
	{field: field.SearchQuery, onRole: true, keywords: []string{"search"}, content: "Search"},
}

// ruleTables lists the tables after the password check, highest priority
// first: contact fields beat resume sections, which beat generic fields.
var ruleTables = [][]rule{contactRules, resumeRules, genericRules, roleRules}

// resumeKeywords in surrounding text mark a job application context.
var resumeKeywords = []string{
	"resume", "cv", "curriculum vitae", "job application",
	"职位", "简历", "求职", "应聘",
}

// jobBoardKeywords in the window title mark a job application context.
var jobBoardKeywords = []string{
	"job application", "apply", "careers", "workday", "greenhouse", "lever.co", "indeed", "linkedin jobs",
}
