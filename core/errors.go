package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Schema 错误：SCHEMA_MISMATCH（行为特征不在特征列中、列名重复等）
//   - Shape 错误：SHAPE_MISMATCH（批次缺列、列宽与 SlotWidth 不符等）
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 其他领域错误
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA_MISMATCH", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "model", "feature", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound       = "NOT_FOUND"       // 资源不存在
	ErrorCodeNotSupported   = "NOT_SUPPORTED"   // 操作不支持
	ErrorCodeInvalidInput   = "INVALID_INPUT"   // 输入无效
	ErrorCodeInternalError  = "INTERNAL_ERROR"  // 内部错误
	ErrorCodeSchemaMismatch = "SCHEMA_MISMATCH" // 特征 schema 与使用方不一致
	ErrorCodeShapeMismatch  = "SHAPE_MISMATCH"  // 输入批次形状与声明不一致
)

// 模块名称常量
const (
	ModuleCore    = "core"    // 领域类型模块
	ModuleModel   = "model"   // 模型模块
	ModuleLayers  = "layers"  // 网络层模块
	ModuleFeature = "feature" // 特征模块
	ModuleStore   = "store"   // 存储模块
	ModuleTrain   = "train"   // 训练模块
	ModuleConfig  = "config"  // 配置模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsSchemaMismatch 检查错误是否为 SCHEMA_MISMATCH。
// 行为特征列表引用了不存在的特征名、列名重复、候选/序列配对不合法等
// 都属于配置级的致命错误，模型构建必须中止而不是静默跳过。
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeSchemaMismatch
	}
	return false
}

// IsShapeMismatch 检查错误是否为 SHAPE_MISMATCH。
// 输入批次缺少声明的特征列、列宽与 SlotWidth 不一致等属于此类。
func IsShapeMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeShapeMismatch
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT。
// 类别取值非法（负数、非整数、越界）属于此类。
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}
